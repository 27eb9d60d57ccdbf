package framebuffer

import "testing"

func TestInitialStateIsIdle(t *testing.T) {
	b := New(Codec{FileName: "unused.avi", FourCC: "MJPG"})
	if b.State() != StateIdle {
		t.Fatalf("expected StateIdle, got %v", b.State())
	}
	if b.IsFilled() {
		t.Fatalf("fresh buffer should not report filled")
	}
}

func TestRecordReplayLifecycle(t *testing.T) {
	t.Skip("requires an OpenCV video backend for the container file; exercised in integration environments with gocv available")
}
