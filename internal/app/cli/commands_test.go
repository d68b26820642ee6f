package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Parse(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedType  CommandType
		expectedColor bool
	}{
		{
			name:         "no args defaults to serve",
			args:         []string{},
			expectedType: CommandServe,
		},
		{
			name:         "serve command",
			args:         []string{"serve"},
			expectedType: CommandServe,
		},
		{
			name:         "generate command",
			args:         []string{"generate"},
			expectedType: CommandGenerate,
		},
		{
			name:          "generate with color flag",
			args:          []string{"generate", "--color"},
			expectedType:  CommandGenerate,
			expectedColor: true,
		},
		{
			name:         "summary command",
			args:         []string{"summary"},
			expectedType: CommandSummary,
		},
		{
			name:         "version command",
			args:         []string{"version"},
			expectedType: CommandVersion,
		},
		{
			name:         "help flag",
			args:         []string{"--help"},
			expectedType: CommandHelp,
		},
		{
			name:         "help subcommand",
			args:         []string{"help"},
			expectedType: CommandHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Parse(tt.args)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedType, opts.Type)
			assert.Equal(t, tt.expectedColor, opts.Color)
		})
	}
}

func Test_Parse_UnknownCommand(t *testing.T) {
	opts, err := Parse([]string{"bogus"})

	assert.Error(t, err)
	assert.Nil(t, opts)
}
