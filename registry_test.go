package secs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryScore int
type registryName string

func TestResourceTable_RegisterAndLookup(t *testing.T) {
	table := NewResourceTable()

	require.NoError(t, RegisterName[registryScore](table, "score"))
	require.NoError(t, RegisterName[registryName](table, "name"))

	id, err := table.Lookup("score")
	require.NoError(t, err)
	assert.Equal(t, IdentityOf[registryScore](), id)

	assert.Equal(t, []string{"name", "score"}, table.Names())
}

func TestResourceTable_DuplicateName(t *testing.T) {
	table := NewResourceTable()

	require.NoError(t, RegisterName[registryScore](table, "score"))
	err := RegisterName[registryScore](table, "score")
	assert.ErrorIs(t, err, ErrDuplicateResource)

	err = RegisterName[registryName](table, "score")
	assert.ErrorIs(t, err, ErrDuplicateResource)
}

func TestResourceTable_EmptyName(t *testing.T) {
	table := NewResourceTable()
	assert.ErrorIs(t, RegisterName[registryScore](table, ""), ErrInvalidDeclaration)
}

func TestResourceTable_UnknownName(t *testing.T) {
	table := NewResourceTable()

	_, err := table.Lookup("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownResource))
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestResourceTable_ResolveKeepsOrder(t *testing.T) {
	table := NewResourceTable()
	require.NoError(t, RegisterName[registryScore](table, "score"))
	require.NoError(t, RegisterName[registryName](table, "name"))

	ids, err := table.Resolve([]string{"name", "score"})
	require.NoError(t, err)
	assert.Equal(t, []ResourceID{IdentityOf[registryName](), IdentityOf[registryScore]()}, ids)

	_, err = table.Resolve([]string{"score", "ghost"})
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestIdentityOf_Stable(t *testing.T) {
	a := IdentityOf[registryScore]()
	b := IdentityOf[registryScore]()
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, IdentityOf[registryName]())
	assert.Equal(t, "registryScore", ResourceType(a).Name())
}

func TestIdentityOfValue_RequiresPointer(t *testing.T) {
	var score registryScore

	id, typ, err := identityOfValue(&score)
	require.NoError(t, err)
	assert.Equal(t, IdentityOf[registryScore](), id)
	assert.Equal(t, "registryScore", typ.Name())

	_, _, err = identityOfValue(score)
	assert.Error(t, err)

	_, _, err = identityOfValue((*registryScore)(nil))
	assert.Error(t, err)

	_, _, err = identityOfValue(nil)
	assert.Error(t, err)
}
