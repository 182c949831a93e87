package auth

import (
	"context"
	"slices"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/core/id"
)

// Authorize is the single access predicate. It passes when ident is an
// authenticated session holding one of roles; with no roles any session
// passes. A company user without a company never passes. Every refusal is
// the same AccessDenied error.
func Authorize(ident *appctx.Identity, roles ...appctx.Role) error {
	if ident == nil || ident.Subject == "" {
		return apperror.NewAccessDenied()
	}
	if ident.Role == appctx.RoleUser && ident.CompanyID == "" {
		return apperror.NewAccessDenied()
	}
	if len(roles) == 0 || slices.Contains(roles, ident.Role) {
		return nil
	}
	return apperror.NewAccessDenied()
}

// AuthorizeContext applies Authorize to the identity stored in ctx.
func AuthorizeContext(ctx context.Context, roles ...appctx.Role) (*appctx.Identity, error) {
	ident := appctx.GetIdentity(ctx)
	if err := Authorize(ident, roles...); err != nil {
		return nil, err
	}
	return ident, nil
}

// CompanyID returns the company a company user acts for.
func CompanyID(ctx context.Context) (id.ID, error) {
	ident, err := AuthorizeContext(ctx, appctx.RoleUser)
	if err != nil {
		return id.ID{}, err
	}
	companyID, err := id.Parse(ident.CompanyID)
	if err != nil {
		return id.ID{}, apperror.NewAccessDenied()
	}
	return companyID, nil
}
