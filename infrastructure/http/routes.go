package http

import (
	"net/http"
	"time"

	"gpdash/frontend/activity"
	adminusers "gpdash/frontend/adminUsers"
	"gpdash/frontend/customers"
	"gpdash/frontend/help"
	"gpdash/frontend/inventory"
	"gpdash/frontend/invoices"
	"gpdash/frontend/login"
	"gpdash/frontend/salesforce"
	"gpdash/frontend/salesorders"
	"gpdash/frontend/salesorders/allocate"
	"gpdash/frontend/salesorders/pickticket"
	"gpdash/frontend/settings"
	"gpdash/frontend/sites"
	"gpdash/infrastructure/rbac"

	"github.com/go-chi/chi/v5"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.DB, s.SessionCache, s.UserCache))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache))
}

// RegisterBrowseRoutes registers the read-only GP browse pages. They are
// available to both roles and sit behind the short Redis response cache.
func (s *Server) RegisterBrowseRoutes(r chi.Router) chi.Router {
	pageCache := ResponseCacheMiddleware(s.Redis, 30*time.Second)

	for _, role := range []string{rbac.RoleAdmin, rbac.RoleSales} {
		s.Rbac.Add(role, "CUSTOMERS_LIST_VIEW", http.MethodGet, "/tasker/customers")
		s.Rbac.Add(role, "CUSTOMER_DETAIL_VIEW", http.MethodGet, "/tasker/customers/*")
		s.Rbac.Add(role, "INVENTORY_LIST_VIEW", http.MethodGet, "/tasker/inventory")
		s.Rbac.Add(role, "INVOICES_LIST_VIEW", http.MethodGet, "/tasker/invoices")
		s.Rbac.Add(role, "SITES_LIST_VIEW", http.MethodGet, "/tasker/sites")
		s.Rbac.Add(role, "SITE_ACTIVATE", http.MethodPost, "/tasker/sites/*/activate")
		s.Rbac.Add(role, "SETTINGS_VIEW", http.MethodGet, "/tasker/settings")
		s.Rbac.Add(role, "SETTINGS_EDIT", http.MethodPost, "/tasker/settings")
		s.Rbac.Add(role, "HELP_VIEW", http.MethodGet, "/tasker/help")
	}

	r.Group(func(r chi.Router) {
		r.Use(pageCache)
		r.Get("/customers", customers.CustomersPageQueryHandler(s.GP))
		r.Get("/customers/{number}", customers.CustomerDetailPageQueryHandler(s.GP))
		r.Get("/inventory", inventory.InventoryPageQueryHandler(s.GP))
		r.Get("/invoices", invoices.InvoicesPageQueryHandler(s.GP))
	})

	r.Get("/sites", sites.SitesPageQueryHandler(s.Sites))
	r.Post("/sites/{code}/activate", sites.ActivateSiteCommandHandler(s.DB, s.Sites, s.SessionCache))

	r.Get("/settings", settings.SettingsPageQueryHandler(s.DB, s.Sites))
	r.Post("/settings", settings.SettingsUpdateCommandHandler(s.DB, s.Sites, s.SessionCache))

	r.Get("/help", help.HelpPageQueryHandler())

	return r
}

// RegisterOrderRoutes registers sales order pages and the serial
// reservation API the allocation panel talks to. Reservation calls are
// never cached; holds have to be visible the moment they are taken.
func (s *Server) RegisterOrderRoutes(r chi.Router) chi.Router {
	for _, role := range []string{rbac.RoleAdmin, rbac.RoleSales} {
		s.Rbac.Add(role, "SALES_ORDERS_LIST_VIEW", http.MethodGet, "/tasker/salesorders")
		s.Rbac.Add(role, "SALES_ORDER_DETAIL_VIEW", http.MethodGet, "/tasker/salesorders/*")
		s.Rbac.Add(role, "SALES_ORDER_PICK_TICKET", http.MethodGet, "/tasker/salesorders/*/pick-ticket")
		s.Rbac.Add(role, "ALLOCATION_DATA_VIEW", http.MethodGet, "/tasker/api/allocation-data")
		s.Rbac.Add(role, "SERIAL_RESERVE", http.MethodPost, "/tasker/api/serials/reserve")
		s.Rbac.Add(role, "SERIAL_RELEASE", http.MethodPost, "/tasker/api/serials/release")
		s.Rbac.Add(role, "SERIAL_RELEASE_ALL", http.MethodPost, "/tasker/api/serials/release-all")
	}

	r.Get("/salesorders", salesorders.SalesOrdersPageQueryHandler(s.GP))
	r.Get("/salesorders/{sopNumber}", salesorders.OrderDetailPageQueryHandler(s.GP, s.DB))
	r.Get("/salesorders/{sopNumber}/pick-ticket", pickticket.PickTicketPDFHandler(s.GP))

	r.Get("/api/allocation-data", allocate.AllocationDataQueryHandler(s.Resolver))
	r.Post("/api/serials/reserve", allocate.ReserveSerialCommandHandler(s.Reservations))
	r.Post("/api/serials/release", allocate.ReleaseSerialCommandHandler(s.Reservations))
	r.Post("/api/serials/release-all", allocate.ReleaseAllCommandHandler(s.Reservations))

	return r
}

// RegisterAdminRoutes registers admin-only routes.
func (s *Server) RegisterAdminRoutes(r chi.Router) chi.Router {
	s.Rbac.Add(rbac.RoleAdmin, "ACTIVITY_VIEW", http.MethodGet, "/tasker/activity")
	r.Get("/activity", activity.ActivityPageQueryHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "SF_IMPORT_VIEW", http.MethodGet, "/tasker/salesforce/import")
	r.Get("/salesforce/import", salesforce.SfImportPageQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "SF_IMPORT", http.MethodPost, "/tasker/salesforce/import")
	r.Post("/salesforce/import", salesforce.SfImportCommandHandler(s.DB, s.Audit))

	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_LIST_VIEW", http.MethodGet, "/tasker/admin/users")
	r.Get("/admin/users", adminusers.UsersPageQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_CREATE", http.MethodPost, "/tasker/admin/users")
	r.Post("/admin/users", adminusers.CreateUserCommandHandler(s.DB, s.UserCache))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_ROLE_EDIT", http.MethodPost, "/tasker/admin/users/role")
	r.Post("/admin/users/role", adminusers.UpdateUserRoleCommandHandler(s.DB, s.UserCache))

	return r
}
