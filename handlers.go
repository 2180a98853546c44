package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/genautech/rewards_backend/config"
	"github.com/genautech/rewards_backend/middlewares"
	"github.com/genautech/rewards_backend/models"
	"github.com/genautech/rewards_backend/reports"
	"github.com/genautech/rewards_backend/utils"
	"github.com/genautech/rewards_backend/workflow"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	app *App
}

type transitionRequest struct {
	Status string  `json:"status"`
	Title  *string `json:"title"`
}

type replaceItemsRequest struct {
	Items []models.NewBudgetItem `json:"items"`
}

type replicateBudgetRequest struct {
	BudgetId    int                          `json:"budget_id"`
	DryRun      bool                         `json:"dry_run"`
	ActorId     *int                         `json:"actor_id"`
	BudgetData  *workflow.BudgetSnapshotData `json:"budget_data"`
	BudgetItems []models.NewBudgetItem       `json:"budget_items"`
}

type replicateProductRequest struct {
	BaseProductId int                      `json:"base_product_id"`
	CompanyId     string                   `json:"company_id"`
	Overrides     *models.ProductOverrides `json:"overrides"`
	ActorId       *int                     `json:"actor_id"`
	DryRun        bool                     `json:"dry_run"`
}

type budgetItemView struct {
	*models.BudgetItem
	BaseProductSku  string `json:"base_product_sku"`
	BaseProductName string `json:"base_product_name"`
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var (
		validation  *models.ValidationError
		notFound    *models.NotFoundError
		transition  *models.InvalidTransitionError
		noItems     *models.NoItemsError
		notReleased *models.NotReleasedError
		notEditable *models.NotEditableError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &transition):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &noItems):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notReleased), errors.As(err, &notEditable), errors.Is(err, models.ErrReplicationInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) respondError(c *gin.Context, funcName string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		user, _ := utils.GetUserNameFromContext(c.Request.Context())
		config.LogError(h.app.Logger, "handlers.go", funcName, c.Request.URL.Path, user, err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	body := gin.H{"error": err.Error()}
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		body["fields"] = validation.Fields
	}
	c.JSON(status, body)
}

func actorFrom(c *gin.Context) models.Actor {
	ctx := c.Request.Context()
	id, _ := utils.GetUserIdFromContext(ctx)
	role, _ := utils.GetUserRoleFromContext(ctx)
	return models.Actor{Id: id, Role: models.UserRole(role)}
}

func pathId(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(name, "numeric")
	}
	return id, nil
}

func queryId(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil, models.NewValidationError(name, "numeric")
	}
	return &id, nil
}

func bindBody(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return models.NewValidationError("body", "json")
	}
	return nil
}

func (h *handlers) listBaseProducts(c *gin.Context) {
	products, err := h.app.Repos.BaseProducts.ListBaseProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, "listBaseProducts", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handlers) saveBaseProduct(c *gin.Context) {
	if actorFrom(c).Role != models.UserRoleAdmin {
		h.respondError(c, "saveBaseProduct", models.ErrForbidden)
		return
	}
	var input models.NewBaseProduct
	if err := bindBody(c, &input); err != nil {
		h.respondError(c, "saveBaseProduct", err)
		return
	}
	if err := input.Validate(); err != nil {
		h.respondError(c, "saveBaseProduct", err)
		return
	}
	product := input.ToBaseProduct()
	if err := h.app.Repos.BaseProducts.SaveBaseProduct(c.Request.Context(), product); err != nil {
		h.respondError(c, "saveBaseProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handlers) createBudget(c *gin.Context) {
	var input models.NewBudget
	if err := bindBody(c, &input); err != nil {
		h.respondError(c, "createBudget", err)
		return
	}
	budget, err := h.app.Budgets.CreateBudget(c.Request.Context(), actorFrom(c), &input)
	if err != nil {
		h.respondError(c, "createBudget", err)
		return
	}
	c.JSON(http.StatusCreated, budget)
}

func (h *handlers) listBudgets(c *gin.Context) {
	filter := models.BudgetFilter{
		CompanyId:       strings.TrimSpace(c.Query("company_id")),
		IncludeArchived: strings.EqualFold(c.Query("include_archived"), "true"),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := models.ParseBudgetStatus(raw)
		if err != nil {
			h.respondError(c, "listBudgets", err)
			return
		}
		filter.Status = status
	}
	budgets, err := h.app.Budgets.ListBudgets(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "listBudgets", err)
		return
	}
	c.JSON(http.StatusOK, budgets)
}

func (h *handlers) getBudget(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "getBudget", err)
		return
	}
	budget, err := h.app.Budgets.GetBudget(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "getBudget", err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *handlers) listItems(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "listItems", err)
		return
	}
	ctx := c.Request.Context()
	items, err := h.app.Budgets.ListItems(ctx, id)
	if err != nil {
		h.respondError(c, "listItems", err)
		return
	}

	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.BaseProductId
	}
	products, errs := middlewares.GetBaseProducts(ctx, ids)
	views := make([]budgetItemView, len(items))
	for i, item := range items {
		views[i] = budgetItemView{BudgetItem: item}
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if i < len(products) && products[i] != nil {
			views[i].BaseProductSku = products[i].Sku
			views[i].BaseProductName = products[i].Name
		}
	}
	c.JSON(http.StatusOK, views)
}

func (h *handlers) addItem(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "addItem", err)
		return
	}
	var input models.NewBudgetItem
	if err := bindBody(c, &input); err != nil {
		h.respondError(c, "addItem", err)
		return
	}
	item, err := h.app.Budgets.AddItem(c.Request.Context(), actorFrom(c), id, &input)
	if err != nil {
		h.respondError(c, "addItem", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *handlers) replaceItems(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "replaceItems", err)
		return
	}
	var input replaceItemsRequest
	if err := bindBody(c, &input); err != nil {
		h.respondError(c, "replaceItems", err)
		return
	}
	items, err := h.app.Budgets.ReplaceItems(c.Request.Context(), actorFrom(c), id, input.Items)
	if err != nil {
		h.respondError(c, "replaceItems", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) updateItem(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "updateItem", err)
		return
	}
	itemId, err := pathId(c, "itemId")
	if err != nil {
		h.respondError(c, "updateItem", err)
		return
	}
	var patch models.BudgetItemPatch
	if err := bindBody(c, &patch); err != nil {
		h.respondError(c, "updateItem", err)
		return
	}
	item, err := h.app.Budgets.UpdateItem(c.Request.Context(), actorFrom(c), id, itemId, &patch)
	if err != nil {
		h.respondError(c, "updateItem", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *handlers) deleteItem(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "deleteItem", err)
		return
	}
	itemId, err := pathId(c, "itemId")
	if err != nil {
		h.respondError(c, "deleteItem", err)
		return
	}
	if err := h.app.Budgets.DeleteItem(c.Request.Context(), actorFrom(c), id, itemId); err != nil {
		h.respondError(c, "deleteItem", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) calculateTotals(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "calculateTotals", err)
		return
	}
	totals, err := h.app.Totals.CalculateBudgetTotals(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "calculateTotals", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *handlers) archiveBudget(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "archiveBudget", err)
		return
	}
	budget, err := h.app.Budgets.ArchiveBudget(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, "archiveBudget", err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

// requestTransition rejects unknown statuses and disallowed edges with 400
// before anything is written.
func (h *handlers) requestTransition(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "requestTransition", err)
		return
	}
	var input transitionRequest
	if err := bindBody(c, &input); err != nil {
		h.respondError(c, "requestTransition", err)
		return
	}
	status, err := models.ParseBudgetStatus(input.Status)
	if err != nil {
		h.respondError(c, "requestTransition", err)
		return
	}
	budget, err := h.app.StateMachine.RequestTransition(c.Request.Context(), workflow.TransitionRequest{
		BudgetId: id,
		Status:   status,
		Title:    input.Title,
		ActorId:  actorFrom(c).Id,
	})
	if err != nil {
		h.respondError(c, "requestTransition", err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

// replicationStatus is 207 when some items failed and 200 otherwise.
func replicationStatus(summary *workflow.ReplicationSummary) int {
	if summary.HasErrors() {
		return http.StatusMultiStatus
	}
	return http.StatusOK
}

func (h *handlers) replicateBudget(c *gin.Context) {
	var input replicateBudgetRequest
	if err := bindBody(c, &input); err != nil {
		h.respondError(c, "replicateBudget", err)
		return
	}
	actorId := input.ActorId
	if actorId == nil {
		if id, ok := utils.GetUserIdFromContext(c.Request.Context()); ok {
			actorId = &id
		}
	}
	var snapshot *workflow.BudgetSnapshot
	if input.BudgetData != nil || input.BudgetItems != nil {
		snapshot = &workflow.BudgetSnapshot{Budget: input.BudgetData, Items: input.BudgetItems}
	}
	summary, err := h.app.Replicator.ReplicateBudget(c.Request.Context(), workflow.ReplicateBudgetInput{
		BudgetId: input.BudgetId,
		DryRun:   input.DryRun,
		ActorId:  actorId,
		Source:   workflow.SourceBudgetRelease,
		Snapshot: snapshot,
	})
	if err != nil {
		h.respondError(c, "replicateBudget", err)
		return
	}
	c.JSON(replicationStatus(summary), summary)
}

func (h *handlers) replicateProduct(c *gin.Context) {
	var input replicateProductRequest
	if err := bindBody(c, &input); err != nil {
		h.respondError(c, "replicateProduct", err)
		return
	}
	actorId := actorFrom(c).Id
	if input.ActorId != nil {
		actorId = *input.ActorId
	}
	summary, err := h.app.Replicator.ReplicateSingleProduct(c.Request.Context(), workflow.ReplicateSingleInput{
		BaseProductId: input.BaseProductId,
		CompanyId:     strings.TrimSpace(input.CompanyId),
		Overrides:     input.Overrides,
		ActorId:       actorId,
		DryRun:        input.DryRun,
		Source:        workflow.SourceSingleProduct,
	})
	if err != nil {
		if summary != nil && models.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "summary": summary})
			return
		}
		h.respondError(c, "replicateProduct", err)
		return
	}
	c.JSON(replicationStatus(summary), summary)
}

func logFilterFrom(c *gin.Context) (models.ReplicationLogFilter, error) {
	budgetId, err := queryId(c, "budget_id")
	if err != nil {
		return models.ReplicationLogFilter{}, err
	}
	return models.ReplicationLogFilter{
		BudgetId:  budgetId,
		CompanyId: strings.TrimSpace(c.Query("company_id")),
		Action:    models.ReplicationAction(strings.TrimSpace(c.Query("action"))),
	}, nil
}

func (h *handlers) listLogs(c *gin.Context) {
	filter, err := logFilterFrom(c)
	if err != nil {
		h.respondError(c, "listLogs", err)
		return
	}
	logs, err := h.app.Repos.Logs.ListLogs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "listLogs", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *handlers) getLog(c *gin.Context) {
	id, err := pathId(c, "id")
	if err != nil {
		h.respondError(c, "getLog", err)
		return
	}
	entry, err := h.app.Repos.Logs.GetLog(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "getLog", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *handlers) exportLogs(c *gin.Context) {
	filter, err := logFilterFrom(c)
	if err != nil {
		h.respondError(c, "exportLogs", err)
		return
	}
	logs, err := h.app.Repos.Logs.ListLogs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "exportLogs", err)
		return
	}
	fileName := "replication_logs_" + time.Now().UTC().Format("20060102150405") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Status(http.StatusOK)
	if err := reports.WriteReplicationLogs(c.Writer, logs); err != nil {
		config.LogError(h.app.Logger, "handlers.go", "exportLogs", "write xlsx", filter, err)
	}
}

func (h *handlers) listCompanyProducts(c *gin.Context) {
	companyId := strings.TrimSpace(c.Param("companyId"))
	products, err := h.app.Repos.CompanyProducts.GetCompanyProductsByCompany(c.Request.Context(), companyId)
	if err != nil {
		h.respondError(c, "listCompanyProducts", err)
		return
	}
	c.JSON(http.StatusOK, products)
}
