package blob

import "testing"

func TestPublicURL(t *testing.T) {
	got := publicURL("petty-app.appspot.com", "profile_images/u1.jpg")
	want := "https://storage.googleapis.com/petty-app.appspot.com/profile_images/u1.jpg"
	if got != want {
		t.Fatalf("publicURL = %q; want %q", got, want)
	}
}
