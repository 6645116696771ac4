package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/requestctx"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/session"
	"github.com/deimos91-cmyk/felpe-scuola/internal/services"
)

// PageHandlers serves the server-rendered storefront views.
type PageHandlers struct {
	templates *Templates
	catalog   services.CatalogService
	orders    services.OrderService
	sessions  *session.Manager
}

// NewPageHandlers constructs the storefront page handlers.
func NewPageHandlers(templates *Templates, catalog services.CatalogService, orders services.OrderService, sessions *session.Manager) *PageHandlers {
	return &PageHandlers{
		templates: templates,
		catalog:   catalog,
		orders:    orders,
		sessions:  sessions,
	}
}

// Routes registers the storefront pages.
func (h *PageHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.catalogPage)
	r.Get("/preorder", h.preorderPage)
	r.Post("/preorder", h.submitPreorder)
	r.Get("/admin", h.adminPage)
}

type catalogColorView struct {
	Name      string
	ImagePath string
}

type catalogCardView struct {
	Title            string
	ModelKey         domain.ModelKey
	Variant          domain.Variant
	Price            int
	Description      string
	Details          []string
	Sizes            []string
	Colors           []catalogColorView
	ImagePath        string
	PlaceholderPath  string
	ImageUnavailable bool
	PreorderURL      string
}

type catalogPageData struct {
	Products []catalogCardView
	QtyMin   int
	QtyMax   int
}

func (h *PageHandlers) catalogPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products := h.catalog.Products()
	cards := make([]catalogCardView, 0, len(products))
	for _, product := range products {
		card := catalogCardView{
			Title:       product.Title,
			ModelKey:    product.ModelKey,
			Variant:     product.Variant,
			Price:       product.Price,
			Description: product.Description,
			Details:     product.Details,
			Sizes:       product.Sizes,
			PreorderURL: h.catalog.PreorderURL(product, product.DefaultColor(), product.DefaultSize(), domain.QtyMin),
		}

		res := h.catalog.ResolveImage(ctx, product, product.DefaultColor())
		card.ImagePath = res.Path
		card.ImageUnavailable = res.Unavailable
		if placeholder, ok := h.catalog.PlaceholderImage(product); ok {
			card.PlaceholderPath = placeholder
		}

		for _, color := range product.Colors {
			colorRes := h.catalog.ResolveImage(ctx, product, color)
			card.Colors = append(card.Colors, catalogColorView{Name: color, ImagePath: colorRes.Path})
		}

		cards = append(cards, card)
	}

	h.render(w, r, "catalog", catalogPageData{
		Products: cards,
		QtyMin:   domain.QtyMin,
		QtyMax:   domain.QtyMax,
	})
}

type preorderSelection struct {
	Color string
	Size  string
	Qty   int
}

type preorderValues struct {
	Name      string
	ClassName string
	Contact   string
	Notes     string
}

type preorderPageData struct {
	MissingData      bool
	Product          domain.Product
	Selection        preorderSelection
	Values           preorderValues
	ImagePath        string
	ImageUnavailable bool
	Error            string
}

// preorderPage renders the confirmation view from the navigation query
// string. Any missing required parameter routes to the terminal missing-data
// state, never to the form.
func (h *PageHandlers) preorderPage(w http.ResponseWriter, r *http.Request) {
	data, ok := h.preorderData(r)
	if !ok {
		h.render(w, r, "preorder", preorderPageData{MissingData: true})
		return
	}
	h.render(w, r, "preorder", data)
}

func (h *PageHandlers) submitPreorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.render(w, r, "preorder", preorderPageData{MissingData: true})
		return
	}

	data, ok := h.preorderData(r)
	if !ok {
		h.render(w, r, "preorder", preorderPageData{MissingData: true})
		return
	}
	data.Values = preorderValues{
		Name:      r.PostFormValue("name"),
		ClassName: r.PostFormValue("className"),
		Contact:   r.PostFormValue("contact"),
		Notes:     r.PostFormValue("notes"),
	}

	order, err := h.orders.Submit(ctx, services.SubmitOrderCommand{
		ModelKey:  data.Product.ModelKey,
		Variant:   data.Product.Variant,
		Color:     data.Selection.Color,
		Size:      data.Selection.Size,
		Qty:       r.FormValue("qty"),
		Name:      data.Values.Name,
		ClassName: data.Values.ClassName,
		Contact:   data.Values.Contact,
		Notes:     data.Values.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderInvalidInput):
			data.Error = invalidInputMessage(data.Values)
		default:
			requestctx.Logger(ctx).Error("order submission failed", zap.Error(err))
			data.Error = "Invio non riuscito. Riprova tra qualche istante."
		}
		h.render(w, r, "preorder", data)
		return
	}

	h.render(w, r, "confirm", struct{ Order domain.Order }{Order: order})
}

// invalidInputMessage distinguishes missing required fields from a selection
// the catalog does not offer, such as a colour smuggled into the query string.
func invalidInputMessage(values preorderValues) string {
	if strings.TrimSpace(values.Name) == "" ||
		strings.TrimSpace(values.ClassName) == "" ||
		strings.TrimSpace(values.Contact) == "" {
		return "Controlla i dati inseriti: nome, classe e contatto sono obbligatori."
	}
	return "Dati non validi. Controlla colore, taglia e quantità selezionati."
}

// preorderData reassembles the product and selection from the query string.
func (h *PageHandlers) preorderData(r *http.Request) (preorderPageData, bool) {
	query := r.URL.Query()
	if r.Method == http.MethodPost {
		query = r.PostForm
	}

	productType := strings.TrimSpace(query.Get("productType"))
	modelKey := strings.TrimSpace(query.Get("modelKey"))
	variant := strings.TrimSpace(query.Get("variant"))
	color := strings.TrimSpace(query.Get("color"))
	if productType == "" || modelKey == "" || variant == "" || color == "" {
		return preorderPageData{}, false
	}

	product, err := h.catalog.FindProduct(domain.ModelKey(modelKey), domain.Variant(variant))
	if err != nil {
		return preorderPageData{}, false
	}

	size := strings.TrimSpace(query.Get("size"))
	if !product.HasSizes() {
		size = ""
	}

	data := preorderPageData{
		Product: product,
		Selection: preorderSelection{
			Color: color,
			Size:  size,
			Qty:   domain.ClampQty(query.Get("qty")),
		},
	}

	res := h.catalog.ResolveImage(r.Context(), product, color)
	data.ImagePath = res.Path
	data.ImageUnavailable = res.Unavailable
	return data, true
}

type adminPageData struct {
	LoggedIn bool
}

// adminPage renders the login form or the triage table depending on the
// session cookie.
func (h *PageHandlers) adminPage(w http.ResponseWriter, r *http.Request) {
	loggedIn := false
	if h.sessions != nil {
		if _, err := h.sessions.Load(r); err == nil {
			loggedIn = true
		}
	}
	h.render(w, r, "admin", adminPageData{LoggedIn: loggedIn})
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		requestctx.Logger(r.Context()).Error("template render failed",
			zap.String("page", page),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
