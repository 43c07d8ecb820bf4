package platform

import "os"

func osLink(target, linkPath string) error    { return os.Link(target, linkPath) }
func osSymlink(target, linkPath string) error { return os.Symlink(target, linkPath) }
