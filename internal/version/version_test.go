package version

import "testing"

func TestGet(t *testing.T) {
	t.Parallel()

	info := Get()
	if info.Version != Version || info.Commit != Commit {
		t.Errorf("Get() = %+v, want {%s %s}", info, Version, Commit)
	}
}
