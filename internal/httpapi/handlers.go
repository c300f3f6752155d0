package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

// Auth

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	result, err := a.service.Login(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.service.Logout(r.Context(), bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.service.CurrentSession(bearerToken(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Catalog

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context(), bearerToken(r), r.URL.Query().Get("category"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	product, err := a.service.CreateProduct(r.Context(), bearerToken(r), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	product, err := a.service.UpdateProduct(r.Context(), bearerToken(r), chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProduct(r.Context(), bearerToken(r), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Orders

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	order, err := a.service.CreateOrder(r.Context(), bearerToken(r), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(strings.ToUpper(r.URL.Query().Get("status")))
	page, err := a.service.ListOrders(r.Context(), bearerToken(r), status,
		queryInt64(r, "page", 1), queryInt64(r, "page_size", 20))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetOrder(r.Context(), bearerToken(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	order, err := a.service.UpdateOrderStatus(r.Context(), bearerToken(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteOrder(r.Context(), bearerToken(r), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Cash shifts

func (a *API) handleShiftOpen(w http.ResponseWriter, r *http.Request) {
	var req domain.ShiftOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	shift, err := a.service.OpenShift(r.Context(), bearerToken(r), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shift)
}

func (a *API) handleShiftActive(w http.ResponseWriter, r *http.Request) {
	shift, err := a.service.ActiveShift(r.Context(), bearerToken(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleShiftMovement(w http.ResponseWriter, r *http.Request) {
	var req domain.MovementRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	shift, err := a.service.RegisterMovement(r.Context(), bearerToken(r), chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleShiftClose(w http.ResponseWriter, r *http.Request) {
	var req domain.ShiftCloseRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	shift, err := a.service.CloseShift(r.Context(), bearerToken(r), chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (a *API) handleListShifts(w http.ResponseWriter, r *http.Request) {
	page, err := a.service.ListShifts(r.Context(), bearerToken(r),
		queryTime(r, "from", time.Time{}), queryTime(r, "to", time.Time{}),
		queryInt64(r, "page", 1), queryInt64(r, "page_size", 20))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Users

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListUsers(r.Context(), bearerToken(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	user, err := a.service.CreateUser(r.Context(), bearerToken(r), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UserUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	user, err := a.service.UpdateUser(r.Context(), bearerToken(r), chi.URLParam(r, "id"), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteUser(r.Context(), bearerToken(r), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Expenses

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	page, err := a.service.ListExpenses(r.Context(), bearerToken(r),
		queryTime(r, "from", time.Time{}), queryTime(r, "to", time.Time{}),
		queryInt64(r, "page", 1), queryInt64(r, "page_size", 20))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, store.ErrValidation)
		return
	}
	expense, err := a.service.CreateExpense(r.Context(), bearerToken(r), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (a *API) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteExpense(r.Context(), bearerToken(r), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Reports

func (a *API) reportWindow(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := queryTime(r, "from", now.AddDate(0, 0, -30))
	to := queryTime(r, "to", now)
	// An inclusive "to" date means end of that day.
	if to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 {
		to = to.Add(24*time.Hour - time.Second)
	}
	return from, to
}

func (a *API) handleSalesOverview(w http.ResponseWriter, r *http.Request) {
	from, to := a.reportWindow(r)
	overview, err := a.service.SalesOverview(r.Context(), bearerToken(r), from, to)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (a *API) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	from, to := a.reportWindow(r)
	pnl, err := a.service.ProfitLoss(r.Context(), bearerToken(r), from, to)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pnl)
}

func (a *API) handleMonthlyPnL(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			a.writeError(w, store.ErrValidation)
			return
		}
		year = parsed
	}
	months, err := a.service.MonthlyPnL(r.Context(), bearerToken(r), year)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}
