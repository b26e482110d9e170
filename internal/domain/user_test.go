package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRecord_IdentityHandle(t *testing.T) {
	u := UserRecord{Username: "aauthor@example.com", Namespace: "airtable"}
	assert.Equal(t, "FederatedRole/aauthor@example.com", u.IdentityHandle("FederatedRole"))
}

func TestUserRecord_DesiredGroups(t *testing.T) {
	t.Run("csv_split", func(t *testing.T) {
		u := UserRecord{Groups: "biz-eng-readers,biz-eng-devs"}
		assert.Equal(t, []string{"biz-eng-readers", "biz-eng-devs"}, u.DesiredGroups())
	})

	t.Run("empty_field", func(t *testing.T) {
		u := UserRecord{Groups: ""}
		assert.Nil(t, u.DesiredGroups())
	})

	t.Run("drops_empty_segments", func(t *testing.T) {
		u := UserRecord{Groups: "g1,,g2,"}
		assert.Equal(t, []string{"g1", "g2"}, u.DesiredGroups())
	})

	t.Run("trims_whitespace", func(t *testing.T) {
		u := UserRecord{Groups: " g1 , g2"}
		assert.Equal(t, []string{"g1", "g2"}, u.DesiredGroups())
	})
}

func TestUserRecord_Validate(t *testing.T) {
	valid := UserRecord{Username: "a", Namespace: "ns1", Role: "READER", Email: "a@x.com"}
	require.NoError(t, valid.Validate())

	for name, rec := range map[string]UserRecord{
		"missing_username":  {Namespace: "ns1", Role: "READER"},
		"missing_namespace": {Username: "a", Role: "READER"},
		"missing_role":      {Username: "a", Namespace: "ns1"},
	} {
		t.Run(name, func(t *testing.T) {
			err := rec.Validate()
			require.Error(t, err)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestIAMRoleARN(t *testing.T) {
	assert.Equal(t,
		"arn:aws:iam::012345678901:role/FederatedQuickSightRole",
		IAMRoleARN("012345678901", "FederatedQuickSightRole"),
	)
}
