package hashstat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContextWorkDir(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	base := t.TempDir()
	bc, err := NewBuildContext(logger.Sugar.WithServiceName(t.Name()), WithTempDir(base), WithK(9))
	require.NoError(t, err)
	assert.Equal(t, 9, bc.Config.K)

	dir, err := bc.WorkDir()
	require.NoError(t, err)
	assert.Equal(t, base, filepath.Dir(dir))
	assert.True(t, strings.HasSuffix(dir, bc.RunID.String()))

	d, err := bc.Derive(WithK(11))
	require.NoError(t, err)
	assert.Equal(t, 11, d.Config.K)
	assert.Equal(t, 9, bc.Config.K, "derived options do not leak back")
	shared, err := d.WorkDir()
	require.NoError(t, err)
	assert.Equal(t, dir, shared)

	require.NoError(t, bc.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, bc.Close(), "closing twice is harmless")
}

func TestBuildContextRejectsBadConfig(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	_, err := NewBuildContext(logger.Sugar.WithServiceName(t.Name()), WithK(0))
	require.ErrorIs(t, err, ErrBadConfig)

	bc, err := NewBuildContext(logger.Sugar.WithServiceName(t.Name()))
	require.NoError(t, err)
	_, err = bc.Derive(WithThreads(0))
	require.ErrorIs(t, err, ErrBadConfig)

	other, err := NewBuildContext(logger.Sugar.WithServiceName(t.Name()))
	require.NoError(t, err)
	assert.NotEqual(t, bc.RunID, other.RunID)
}
