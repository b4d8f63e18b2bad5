package dirent

import "testing"

func TestHardlinksZeroIsOrdinary(t *testing.T) {
	var h Hardlinks
	if h.GroupID() != 0 {
		t.Errorf("zero hardlinks should have group 0, got %d", h.GroupID())
	}
	if h.LinkCount() != 1 {
		t.Errorf("zero hardlinks should have linkcount 1, got %d", h.LinkCount())
	}
}

func TestHardlinksPacking(t *testing.T) {
	h := NewHardlinks(42, 3)
	if h.GroupID() != 42 {
		t.Errorf("GroupID = %d, want 42", h.GroupID())
	}
	if h.LinkCount() != 3 {
		t.Errorf("LinkCount = %d, want 3", h.LinkCount())
	}
}

func TestDatabaseFlagsDirectory(t *testing.T) {
	e := Entry{Mode: modeDir}
	if got := e.DatabaseFlags(); got != FlagDir {
		t.Errorf("directory flags = %v, want %v", got, FlagDir)
	}
}

func TestDatabaseFlagsSymlink(t *testing.T) {
	e := Entry{Mode: modeSymlink}
	want := FlagFile | FlagLink
	if got := e.DatabaseFlags(); got != want {
		t.Errorf("symlink flags = %v, want %v", got, want)
	}
}

func TestDatabaseFlagsNestedMountpointExcludesRoot(t *testing.T) {
	e := Entry{Mode: modeDir, NestedMountpoint: true}
	got := e.DatabaseFlags()
	if got&FlagDirNestedMountpoint == 0 {
		t.Error("mountpoint flag not set")
	}
	if got&FlagDirNestedRoot != 0 {
		t.Error("a mountpoint entry must not also be a nested root")
	}
}

func TestEffectiveSizeSymlink(t *testing.T) {
	e := Entry{Mode: modeSymlink, Symlink: "/a/b/target", Size: 0}
	if e.EffectiveSize() != int64(len("/a/b/target")) {
		t.Errorf("symlink size should equal target length, got %d", e.EffectiveSize())
	}
}

func TestLookupNegative(t *testing.T) {
	l := Negative()
	if !l.IsNegative() {
		t.Error("Negative() should report IsNegative")
	}
	p := Present(Entry{Name: "x"})
	if p.IsNegative() {
		t.Error("Present() should not report IsNegative")
	}
	if p.Entry().Name != "x" {
		t.Error("Present() should preserve the entry")
	}
}

func TestToStatNlinkFromHardlinks(t *testing.T) {
	e := Entry{Mode: modeRegular, Hardlinks: NewHardlinks(7, 2)}
	s := e.ToStat()
	if s.Nlink != 2 {
		t.Errorf("Nlink = %d, want 2", s.Nlink)
	}
}
