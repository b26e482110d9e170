package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionsForPermission(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		actions, err := ActionsForPermission(PermissionRead)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"quicksight:DescribeDataSet",
			"quicksight:DescribeDataSetPermissions",
			"quicksight:PassDataSet",
			"quicksight:DescribeIngestion",
			"quicksight:ListIngestions",
		}, actions)
	})

	t.Run("unrecognized_is_validation_failure", func(t *testing.T) {
		_, err := ActionsForPermission("WRITE")
		require.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestGroupPrincipalARN(t *testing.T) {
	assert.Equal(t,
		"arn:aws:quicksight:us-east-1:012345678901:group/biz-eng/biz-eng-devs",
		GroupPrincipalARN("us-east-1", "012345678901", "biz-eng", "biz-eng-devs"),
	)
}
