// Package fs provides file system abstractions for testability and fault injection.
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: open, remove, rename, stat, mkdir and readdir
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in [FaultyFS] to
// make writes, syncs, closes or renames fail for chosen file names:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("events.root", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context.Context: local file calls are not interruptible
// at the syscall level. Remote storage goes through blobstore instead.
package fs
