package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/convo/runtime/planerrors"
)

func sampleDescriptor(id Ident) ActionDescriptor {
	return ActionDescriptor{
		ID:          id,
		Description: "looks up a user by id",
		Params: []ParamDescriptor{
			{Name: "id", Type: TypeString, Description: "user id"},
		},
		Handler:    func(ExecContext, []any) (any, error) { return nil, nil },
		ContextKey: "user",
	}
}

func TestRegisterRejectsEmptyID(t *testing.T) {
	c := New()
	err := c.Register(ActionDescriptor{Description: "no id"})
	require.Error(t, err)
	var pe *planerrors.PlanError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, planerrors.KindCatalogConflict, pe.Kind)
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(sampleDescriptor("lookup_user")))
	err := c.Register(sampleDescriptor("lookup_user"))
	require.Error(t, err)
	require.True(t, errors.Is(err, planerrors.CatalogConflict))
}

func TestByIDReturnsRegisteredDescriptor(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(sampleDescriptor("lookup_user")))
	d, ok := c.ByID("lookup_user")
	require.True(t, ok)
	require.Equal(t, Ident("lookup_user"), d.ID)
}

func TestByIDMissingReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.ByID("missing")
	require.False(t, ok)
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(sampleDescriptor("b_action")))
	require.NoError(t, c.Register(sampleDescriptor("a_action")))
	all := c.All()
	require.Len(t, all, 2)
	require.Equal(t, Ident("b_action"), all[0].ID)
	require.Equal(t, Ident("a_action"), all[1].ID)
}

func TestRegisterCopiesSliceFieldsDefensively(t *testing.T) {
	c := New()
	desc := sampleDescriptor("lookup_user")
	require.NoError(t, c.Register(desc))

	desc.Params[0].Name = "mutated"
	stored, _ := c.ByID("lookup_user")
	require.Equal(t, "id", stored.Params[0].Name)
}

func TestParameterOrderReturnsNamesInOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(ActionDescriptor{
		ID: "send_email",
		Params: []ParamDescriptor{
			{Name: "to", Type: TypeString},
			{Name: "subject", Type: TypeString},
		},
	}))
	require.Equal(t, []string{"to", "subject"}, c.ParameterOrder("send_email"))
}

func TestParameterOrderUnknownActionReturnsNil(t *testing.T) {
	c := New()
	require.Nil(t, c.ParameterOrder("missing"))
}

func TestDescribeFormatsIDDescriptionAndParams(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(sampleDescriptor("lookup_user")))
	lines := c.Describe()
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "lookup_user: looks up a user by id")
	require.Contains(t, lines[0], "[id:string]")
}
