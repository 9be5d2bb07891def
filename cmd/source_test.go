package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxsource/immunize-cli/internal/model"
)

func TestParseSourceOpts(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("datasets", "", "")
	cmd.Flags().Bool("force", false, "")
	require.NoError(t, cmd.Flags().Set("datasets", "aaaa-1111, bbbb-2222"))
	require.NoError(t, cmd.Flags().Set("force", "true"))

	opts := parseSourceOpts(cmd)
	assert.True(t, opts.Force)
	assert.Equal(t, []string{"aaaa-1111", "bbbb-2222"}, opts.UIDs)
}

func TestParseSourceOpts_Defaults(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("datasets", "", "")
	cmd.Flags().Bool("force", false, "")

	opts := parseSourceOpts(cmd)
	assert.False(t, opts.Force)
	assert.Nil(t, opts.UIDs)
}

func TestLoadFieldsMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte("city: school_city\nschool_code: cds_code\n"), 0o644))

	cmd := &cobra.Command{}
	cmd.Flags().String("fields-map", "", "")
	require.NoError(t, cmd.Flags().Set("fields-map", path))

	fm, err := loadFieldsMap(cmd)
	require.NoError(t, err)
	assert.Equal(t, model.FieldsMap{"city": "school_city", "school_code": "cds_code"}, fm)
}

func TestLoadFieldsMap_NoFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("fields-map", "", "")

	fm, err := loadFieldsMap(cmd)
	require.NoError(t, err)
	assert.Nil(t, fm)
}
