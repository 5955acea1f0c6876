package convert

import "github.com/ilpack/dnmeta/metadata"

// The converters classify failures with the same category sentinels the
// metadata package uses, so callers branch with errors.Is the same way in
// both packages.

func invalidArgument(msg string) error {
	return &metadata.Error{Kind: metadata.ErrInvalidArgument, Message: msg}
}

func invalidData(msg string) error {
	return &metadata.Error{Kind: metadata.ErrInvalidData, Message: msg}
}

func unsupported(msg string) error {
	return &metadata.Error{Kind: metadata.ErrUnsupported, Message: msg}
}
