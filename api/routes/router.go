package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/roastery-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/roastery-backend/api/controllers/orders"
	"github.com/angelmondragon/roastery-backend/api/middleware"
	"github.com/angelmondragon/roastery-backend/internal/auth"
	"github.com/angelmondragon/roastery-backend/internal/authz"
	"github.com/angelmondragon/roastery-backend/internal/backup"
	"github.com/angelmondragon/roastery-backend/internal/cupping"
	"github.com/angelmondragon/roastery-backend/internal/dashboard"
	"github.com/angelmondragon/roastery-backend/internal/expenses"
	"github.com/angelmondragon/roastery-backend/internal/inventory"
	"github.com/angelmondragon/roastery-backend/internal/orders"
	"github.com/angelmondragon/roastery-backend/internal/roasting"
	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// Resource names passed to authz; they match the synchronized collection names.
const (
	resGreenCoffee = "green_coffee"
	resRoasts      = "roasts"
	resOrders      = "orders"
	resRoasted     = "roasted_stock"
	resRetailBags  = "retail_bags"
	resUtilities   = "production_inventory"
	resActivities  = "production_activities"
	resExpenses    = "expenses"
	resCupping     = "cupping_sessions"
	resUsers       = "user_profiles"
	resSync        = "sync"
	resDashboard   = "dashboard"
	resBackup      = "backup"
)

// Deps carries everything the HTTP surface calls into. Optional
// dependencies (Cache, Idempotency) are nil when Redis is not configured.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	LocalDB     controllers.Pinger
	Cache       controllers.Pinger
	Idempotency middleware.IdempotencyStore
	Metrics     prometheus.Gatherer

	Connection  controllers.ConnectionManager
	Sync        controllers.Syncer
	Outbox      controllers.OutboxInspector
	DeadLetters controllers.DeadLetterLister
	Live        controllers.Subscriber

	Auth      auth.Service
	Inventory inventory.Service
	Roasting  roasting.Service
	Orders    orders.Service
	Expenses  expenses.Service
	Cupping   cupping.Service
	Dashboard dashboard.Service
	Backup    backup.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	can := func(action authz.Action, resource string) func(http.Handler) http.Handler {
		return middleware.Authorize(action, resource, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.LocalDB, d.Cache, d.Connection))
	})
	r.Method(http.MethodGet, "/metrics", controllers.Metrics(d.Metrics))

	authenticate := middleware.Auth(middleware.AuthOptions{
		JWT:       cfg.JWT,
		LocalMode: cfg.App.LocalMode,
		Profiles:  d.Auth,
	}, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/sign-in", controllers.AuthSignIn(d.Auth, logg))
		r.Post("/sign-up", controllers.AuthSignUp(d.Auth, logg))
		r.With(authenticate).Get("/me", controllers.AuthMe(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Idempotency(d.Idempotency, logg))

		r.Route("/connection", func(r chi.Router) {
			r.With(can(authz.ActionView, resSync)).Get("/", controllers.ConnectionStatus(d.Connection, logg))
			r.With(can(authz.ActionConfigureSync, resSync)).Put("/", controllers.ConnectionConfigure(d.Connection, logg))
			r.With(can(authz.ActionConfigureSync, resSync)).Post("/reconnect", controllers.ConnectionReconnect(d.Connection, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.With(can(authz.ActionEdit, resSync)).Post("/push", controllers.SyncPush(d.Sync, logg))
			r.With(can(authz.ActionEdit, resSync)).Post("/pull", controllers.SyncPull(d.Sync, logg))
			r.With(can(authz.ActionView, resSync)).Get("/outbox", controllers.SyncOutbox(d.Outbox, d.DeadLetters, logg))
		})

		r.Route("/green-coffee", func(r chi.Router) {
			r.With(can(authz.ActionView, resGreenCoffee)).Get("/", controllers.GreenCoffeeList(d.Inventory, logg))
			r.With(can(authz.ActionEdit, resGreenCoffee)).Post("/", controllers.GreenCoffeeCreate(d.Inventory, logg))
			r.With(can(authz.ActionView, resGreenCoffee)).Get("/{lotId}", controllers.GreenCoffeeGet(d.Inventory, logg))
			r.With(can(authz.ActionEdit, resGreenCoffee)).Put("/{lotId}", controllers.GreenCoffeeUpdate(d.Inventory, logg))
			r.With(can(authz.ActionDelete, resGreenCoffee)).Delete("/{lotId}", controllers.GreenCoffeeDelete(d.Inventory, logg))
		})

		r.Route("/roasts", func(r chi.Router) {
			r.With(can(authz.ActionView, resRoasts)).Get("/", controllers.RoastList(d.Roasting, logg))
			r.With(can(authz.ActionEdit, resRoasts)).Post("/", controllers.RoastRecord(d.Roasting, logg))
			r.With(can(authz.ActionView, resRoasts)).Get("/{roastId}", controllers.RoastGet(d.Roasting, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(can(authz.ActionView, resOrders)).Get("/", ordercontrollers.List(d.Orders, logg))
			r.With(can(authz.ActionEdit, resOrders)).Post("/", ordercontrollers.Create(d.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.With(can(authz.ActionView, resOrders)).Get("/", ordercontrollers.Detail(d.Orders, logg))
				r.With(can(authz.ActionEdit, resOrders)).Put("/", ordercontrollers.Update(d.Orders, logg))
				r.With(can(authz.ActionDelete, resOrders)).Delete("/", ordercontrollers.Delete(d.Orders, logg))

				r.Group(func(r chi.Router) {
					r.Use(can(authz.ActionEdit, resOrders))
					r.Post("/assembly", ordercontrollers.Assemble(d.Orders, logg))
					r.Post("/dispatch", ordercontrollers.Dispatch(d.Orders, logg))
					r.Post("/ready", ordercontrollers.Transition(d.Orders, logg, ordercontrollers.ActionReady))
					r.Post("/invoice", ordercontrollers.Transition(d.Orders, logg, ordercontrollers.ActionInvoice))
					r.Post("/pause", ordercontrollers.Transition(d.Orders, logg, ordercontrollers.ActionPause))
					r.Post("/resume", ordercontrollers.Transition(d.Orders, logg, ordercontrollers.ActionResume))
				})
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/roasted", func(r chi.Router) {
				r.With(can(authz.ActionView, resRoasted)).Get("/", controllers.RoastedStockList(d.Inventory, logg))
				r.With(can(authz.ActionEdit, resRoasted)).Post("/{stockId}/selection", controllers.RoastedStockSelection(d.Inventory, logg))
				r.With(can(authz.ActionEdit, resRoasted)).Post("/{stockId}/retail", controllers.RoastedStockRetail(d.Inventory, logg))
			})
			r.Route("/retail-bags", func(r chi.Router) {
				r.With(can(authz.ActionView, resRetailBags)).Get("/", controllers.RetailBagList(d.Inventory, logg))
				r.With(can(authz.ActionEdit, resRetailBags)).Post("/{bagId}/consume", controllers.RetailBagConsume(d.Inventory, logg))
			})
			r.Route("/utilities", func(r chi.Router) {
				r.With(can(authz.ActionView, resUtilities)).Get("/", controllers.UtilityList(d.Inventory, logg))
				r.With(can(authz.ActionView, resUtilities)).Get("/low-stock", controllers.UtilityLowStock(d.Inventory, logg))
				r.With(can(authz.ActionEdit, resUtilities)).Post("/", controllers.UtilityCreate(d.Inventory, logg))
				r.With(can(authz.ActionEdit, resUtilities)).Put("/{itemId}", controllers.UtilityUpdate(d.Inventory, logg))
				r.With(can(authz.ActionDelete, resUtilities)).Delete("/{itemId}", controllers.UtilityDelete(d.Inventory, logg))
				r.With(can(authz.ActionEdit, resUtilities)).Post("/{itemId}/consume", controllers.UtilityConsume(d.Inventory, logg))
				r.With(can(authz.ActionEdit, resUtilities)).Post("/{itemId}/recharge", controllers.UtilityRecharge(d.Inventory, logg))
			})
			r.With(can(authz.ActionView, resActivities)).Get("/activities", controllers.ActivityList(d.Inventory, logg))
		})

		r.Route("/expenses", func(r chi.Router) {
			r.With(can(authz.ActionView, resExpenses)).Get("/", controllers.ExpenseList(d.Expenses, logg))
			r.With(can(authz.ActionEdit, resExpenses)).Post("/", controllers.ExpenseCreate(d.Expenses, logg))
			r.With(can(authz.ActionView, resExpenses)).Get("/{expenseId}", controllers.ExpenseGet(d.Expenses, logg))
			r.With(can(authz.ActionEdit, resExpenses)).Put("/{expenseId}", controllers.ExpenseUpdate(d.Expenses, logg))
			r.With(can(authz.ActionEdit, resExpenses)).Post("/{expenseId}/pay", controllers.ExpensePay(d.Expenses, logg))
			r.With(can(authz.ActionDelete, resExpenses)).Delete("/{expenseId}", controllers.ExpenseDelete(d.Expenses, logg))
		})

		r.Route("/cupping", func(r chi.Router) {
			r.With(can(authz.ActionView, resCupping)).Get("/", controllers.CuppingList(d.Cupping, logg))
			r.With(can(authz.ActionView, resCupping)).Get("/vocabulary", controllers.CuppingVocabulary())
			r.With(can(authz.ActionEdit, resCupping)).Post("/", controllers.CuppingCreate(d.Cupping, logg))
			r.With(can(authz.ActionView, resCupping)).Get("/{sessionId}", controllers.CuppingGet(d.Cupping, logg))
			r.With(can(authz.ActionDelete, resCupping)).Delete("/{sessionId}", controllers.CuppingDelete(d.Cupping, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(can(authz.ActionManageUsers, resUsers))
			r.Get("/", controllers.UserList(d.Auth, logg))
			r.Put("/{userId}", controllers.UserUpdate(d.Auth, logg))
		})

		r.With(can(authz.ActionView, resDashboard)).Get("/dashboard", controllers.Dashboard(d.Dashboard, logg))

		r.Route("/backup", func(r chi.Router) {
			r.With(can(authz.ActionManageUsers, resBackup)).Get("/export", controllers.BackupExport(d.Backup, logg))
			r.With(can(authz.ActionDelete, resBackup)).Post("/import", controllers.BackupImport(d.Backup, logg))
		})

		r.With(can(authz.ActionView, "live")).Get("/live/{collection}", controllers.LiveStream(d.Live, logg))
	})

	return r
}
