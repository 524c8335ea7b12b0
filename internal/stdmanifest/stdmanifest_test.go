package stdmanifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BurntChromium/iona-lang/internal/perm"
)

func Test_Default_covers_spec_examples(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := Default()

	set, ok := m.Intrinsic("read_file")
	require.True(ok)
	assert.Equal(perm.NewSet(perm.ReadFile), set)

	sig, ok := m.Signature("write_file")
	require.True(ok)
	assert.Equal([]string{"str", "str"}, sig.Params)
	assert.Equal("void", sig.Return)

	sqrt, ok := m.Lookup("sqrt")
	require.True(ok)
	assert.True(sqrt.Pure)
	assert.True(sqrt.Permissions.Empty())
}

func Test_Decode_parses_a_manifest_document(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	doc := `
[[entry]]
path = "read_env"
params = ["str"]
return = "str"
permissions = ["ReadEnv"]
`
	m, err := Decode([]byte(doc))
	require.NoError(err)

	set, ok := m.Intrinsic("read_env")
	require.True(ok)
	assert.Equal(perm.NewSet(perm.ReadEnv), set)
}

func Test_Has_and_unknown_name(t *testing.T) {
	assert := assert.New(t)
	m := Default()
	assert.True(m.Has("read_file"))
	assert.False(m.Has("not_a_real_function"))

	_, ok := m.Intrinsic("not_a_real_function")
	assert.False(ok)
}
