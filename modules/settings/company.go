package settings

import (
	"net/http"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/resource"
)

// CompanyData wraps base so every resolved snapshot carries the company
// settings record under "companyData". Renderers read the company timezone
// from it and section fields gate on it.
func CompanyData(base authz.Resolver, company resource.Service) authz.Resolver {
	return authz.ResolverFunc(func(r *http.Request) authz.Store {
		store := base.Resolve(r)
		snap, ok := store.(authz.Snapshot)
		if !ok {
			return store
		}
		item, err := company.GetItem(r.Context(), CompanyRecord)
		if err != nil {
			return store
		}
		data := make(map[string]any, len(snap.Data)+1)
		for k, v := range snap.Data {
			data[k] = v
		}
		data["companyData"] = map[string]any(item)
		snap.Data = data
		return snap
	})
}
