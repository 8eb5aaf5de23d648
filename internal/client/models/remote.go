package models

// RemoteEntry is one item of the enumerated remote repository tree: the
// path, the content hash GitHub reports for it, and enough metadata to
// decide whether it needs downloading.
type RemoteEntry struct {
	Path string
	SHA  string
	Type EntryType
	Size int64
}
