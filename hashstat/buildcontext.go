package hashstat

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"

	"github.com/sidney/mira4-assembler-patches-sub001/vhash"
)

// BuildContext carries everything one assembly pass shares between the
// builders and the passes over the finished index. Nothing here is process
// global; a context lives for one pass and is closed at its end.
type BuildContext struct {
	Log    logger.Logger
	RunID  uuid.UUID
	Config Config

	scratch *scratchDir
}

// scratchDir is shared by a context and everything derived from it.
type scratchDir struct {
	path string
}

// NewBuildContext validates the default configuration with opts applied,
// assigns a run id and creates the scratch directory under TempDir. Close
// removes the scratch directory.
func NewBuildContext(log logger.Logger, opts ...Option) (*BuildContext, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bc := &BuildContext{
		Log:     log,
		RunID:   uuid.New(),
		Config:  cfg,
		scratch: &scratchDir{},
	}
	return bc, nil
}

// Derive returns a context sharing the log and work directory with bc but with
// opts applied to a copy of its configuration.
func (bc *BuildContext) Derive(opts ...Option) (*BuildContext, error) {
	cfg := bc.Config
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := *bc
	d.Config = cfg
	return &d, nil
}

// WorkDir returns the per run scratch directory, creating it on first use.
func (bc *BuildContext) WorkDir() (string, error) {
	if bc.scratch.path != "" {
		return bc.scratch.path, nil
	}
	base := bc.Config.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "hashstat-"+bc.RunID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSpillWrite, err)
	}
	bc.scratch.path = dir
	return dir, nil
}

// Close removes the scratch directory.
func (bc *BuildContext) Close() error {
	if bc.scratch.path == "" {
		return nil
	}
	err := os.RemoveAll(bc.scratch.path)
	bc.scratch.path = ""
	return err
}

func (bc *BuildContext) encoder() (*vhash.Encoder, error) {
	return vhash.NewEncoder(bc.Config.K)
}
