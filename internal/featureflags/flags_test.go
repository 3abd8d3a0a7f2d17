package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabledFromEnv(t *testing.T) {
	t.Setenv("FLAG_PUBLIC_SIGNUP", "Yes")
	assert.True(t, Enabled(PublicSignup))

	t.Setenv("FLAG_PUBLIC_SIGNUP", "0")
	assert.False(t, Enabled(PublicSignup))
}

func TestFromMap(t *testing.T) {
	f := FromMap(map[string]bool{PublicSignup: true})
	assert.True(t, f.Enabled(PublicSignup))
	assert.False(t, f.Enabled("other"))

	var none *Flags
	assert.False(t, none.Enabled(PublicSignup))
}
