package dataset

import (
	"context"

	"github.com/vanshika/peoplegraph/internal/domain"
)

// FileSource loads a dataset file on every call, so edits on disk are picked
// up by the next reload.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file:" + s.path
}

func (s *FileSource) Load(ctx context.Context) (domain.SocialGraph, error) {
	if err := ctx.Err(); err != nil {
		return domain.SocialGraph{}, err
	}
	return Read(s.path)
}

// StaticSource serves a fixed in-memory dataset.
type StaticSource struct {
	name string
	sg   domain.SocialGraph
}

func NewStaticSource(name string, sg domain.SocialGraph) *StaticSource {
	return &StaticSource{name: name, sg: sg}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) Load(context.Context) (domain.SocialGraph, error) {
	return s.sg, nil
}
