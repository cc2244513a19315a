package growthbook

import "testing"

func TestMakeKey(t *testing.T) {
	got := makeKey("https://cdn.growthbook.io/", "sdk-abc")
	want := RepositoryKey("https://cdn.growthbook.io||sdk-abc")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMakeRemoteEvalKey(t *testing.T) {
	got := makeRemoteEvalKey("https://cdn.growthbook.io", "sdk-abc", "user-1")
	want := RepositoryKey("https://cdn.growthbook.io||sdk-abc||user-1")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKeyForLocalEval(t *testing.T) {
	inst := &fakeInstance{apiHost: "https://cdn.growthbook.io", clientKey: "sdk-abc"}
	if got, want := keyFor(inst), makeKey("https://cdn.growthbook.io", "sdk-abc"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKeyForRemoteEval(t *testing.T) {
	inst := &fakeInstance{apiHost: "https://cdn.growthbook.io", clientKey: "sdk-abc", remoteEval: true, userID: "user-1"}
	want := makeRemoteEvalKey("https://cdn.growthbook.io", "sdk-abc", "user-1")
	if got := keyFor(inst); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
