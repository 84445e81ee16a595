package router

import (
	"net/http"

	"github.com/punchcard/backend/internal/handlers"
)

// New returns the API handler. Staff actions and the admin console sit
// behind staffAuth; signup, card reads, redemption, task completion and the
// notification ack are token-based and public.
func New(
	customer *handlers.CustomerHandler,
	action *handlers.ActionHandler,
	reward *handlers.RewardHandler,
	notification *handlers.NotificationHandler,
	adminH *handlers.AdminHandler,
	staffAuth func(http.Handler) http.Handler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/customers", customer.CreateCustomer)
	mux.HandleFunc("GET /api/v1/customers/{token}", customer.GetCustomer)
	mux.HandleFunc("GET /api/v1/ledger/{token}", customer.GetLedger)

	mux.HandleFunc("POST /api/v1/staff/login", action.Login)
	mux.Handle("POST /api/v1/staff/actions", staffAuth(http.HandlerFunc(action.ApplyAction)))

	mux.HandleFunc("POST /api/v1/rewards/redeem", reward.Redeem)
	mux.HandleFunc("GET /api/v1/rewards/{token}", reward.List)

	mux.HandleFunc("POST /api/v1/tasks/complete", action.TaskComplete)

	mux.HandleFunc("GET /api/v1/notifications/{token}", notification.ListPending)
	mux.HandleFunc("POST /api/v1/notifications/{id}/shown", notification.MarkShown)

	mux.HandleFunc("GET /api/v1/content/{outletId}", adminH.ListContent)

	mux.Handle("POST /api/v1/admin/publish", staffAuth(http.HandlerFunc(adminH.Publish)))
	mux.Handle("GET /api/v1/admin/audit", staffAuth(http.HandlerFunc(adminH.ListAudit)))
	mux.Handle("GET /api/v1/admin/export", staffAuth(http.HandlerFunc(adminH.Export)))
	mux.Handle("POST /api/v1/admin/undo", staffAuth(http.HandlerFunc(adminH.Undo)))

	return mux
}
