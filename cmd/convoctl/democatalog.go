package main

import (
	"fmt"

	"goa.design/convo/runtime/catalog"
)

// demoCatalog returns a small reference catalog used by the catalog and
// turn subcommands when a host has not wired in its own. It is deliberately
// minimal: convoctl is a debugging aid, not a deployment target.
func demoCatalog() *catalog.Catalog {
	cat := catalog.New()
	_ = cat.Register(catalog.ActionDescriptor{
		ID:          "lookup_user",
		Description: "look up a user by id",
		Params: []catalog.ParamDescriptor{
			{Name: "id", Type: catalog.TypeString, Description: "the user id"},
		},
		ContextKey: "user",
		Handler: func(_ catalog.ExecContext, args []any) (any, error) {
			return fmt.Sprintf("user:%v", args[0]), nil
		},
	})
	_ = cat.Register(catalog.ActionDescriptor{
		ID:          "send_email",
		Description: "send an email to a recipient",
		Params: []catalog.ParamDescriptor{
			{Name: "to", Type: catalog.TypeString, Description: "recipient address"},
			{Name: "subject", Type: catalog.TypeString, Description: "subject line"},
		},
		Handler: func(_ catalog.ExecContext, args []any) (any, error) {
			return "sent", nil
		},
	})
	return cat
}
