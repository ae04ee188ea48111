package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/alejolo311/CDZGR/internal/integrations/mercadopago"
	"github.com/alejolo311/CDZGR/internal/models"
	"github.com/alejolo311/CDZGR/internal/pricing"
	"github.com/alejolo311/CDZGR/internal/repository"

	"github.com/go-chi/chi/v5"
)

type createRegistrationRequest struct {
	Nombre             string `json:"nombre" validate:"required"`
	Apellido           string `json:"apellido" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Telefono           string `json:"telefono" validate:"required"`
	Documento          string `json:"documento"`
	Ciudad             string `json:"ciudad"`
	Talla              string `json:"talla"`
	RH                 string `json:"rh"`
	EPS                string `json:"eps"`
	ContactoEmergencia string `json:"contacto_emergencia"`
	TelefonoEmergencia string `json:"telefono_emergencia"`
	Categoria          string `json:"categoria" validate:"required,oneof=gravel paseo"`
	Subcategoria       string `json:"subcategoria"`
}

type groupParticipantRequest struct {
	Nombre       string `json:"nombre" validate:"required"`
	Apellido     string `json:"apellido" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Telefono     string `json:"telefono"`
	Documento    string `json:"documento"`
	Subcategoria string `json:"subcategoria"`
}

type createGroupRequest struct {
	NombreGrupo      string                    `json:"nombre_grupo" validate:"required"`
	Categoria        string                    `json:"categoria" validate:"required,oneof=gravel paseo"`
	NumParticipantes int                       `json:"num_participantes" validate:"required,min=1,max=100"`
	LiderNombre      string                    `json:"lider_nombre" validate:"required"`
	LiderApellido    string                    `json:"lider_apellido" validate:"required"`
	LiderEmail       string                    `json:"lider_email" validate:"required,email"`
	LiderTelefono    string                    `json:"lider_telefono" validate:"required"`
	LiderDocumento   string                    `json:"lider_documento"`
	LiderCiudad      string                    `json:"lider_ciudad"`
	Participantes    []groupParticipantRequest `json:"participantes" validate:"dive"`
}

type registrationCreatedResponse struct {
	Registration models.Registration `json:"registration"`
	CheckoutURL  string              `json:"checkoutUrl"`
}

type groupCreatedResponse struct {
	Group        models.Group          `json:"group"`
	Participants []models.Registration `json:"participants"`
	CheckoutURL  string                `json:"checkoutUrl"`
}

type registrationStatusResponse struct {
	Tipo         string                `json:"tipo"`
	Registration *models.Registration  `json:"registration,omitempty"`
	Group        *models.Group         `json:"group,omitempty"`
	Participants []models.Registration `json:"participants,omitempty"`
}

var nonDigitRe = regexp.MustCompile(`\D`)

func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.registerLimiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	if !h.hasPaymentConfig() {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}

	var req createRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("create_registration", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Categoria == models.CategoryGravel && strings.TrimSpace(req.Subcategoria) == "" {
		writeError(w, http.StatusBadRequest, "subcategoria is required for gravel")
		return
	}

	price, err := pricing.Price(req.Categoria)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	registration, err := h.repo.CreateRegistration(ctx, models.Registration{
		FirstName:      req.Nombre,
		LastName:       req.Apellido,
		Email:          req.Email,
		Phone:          req.Telefono,
		Document:       req.Documento,
		City:           req.Ciudad,
		ShirtSize:      req.Talla,
		BloodType:      req.RH,
		EPS:            req.EPS,
		EmergencyName:  req.ContactoEmergencia,
		EmergencyPhone: req.TelefonoEmergencia,
		Category:       req.Categoria,
		Subcategory:    req.Subcategoria,
		PriceCOP:       price,
	})
	if err != nil {
		logger.Error("create_registration", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	title, _ := pricing.Title(registration.Category)
	checkoutURL, err := h.createCheckout(ctx, checkoutParams{
		Reference: registration.ID,
		Category:  registration.Category,
		Title:     title,
		Quantity:  1,
		UnitPrice: registration.PriceCOP,
		Name:      registration.FirstName,
		Surname:   registration.LastName,
		Email:     registration.Email,
		Phone:     registration.Phone,
		Group:     false,
	})
	if err != nil {
		// The pending row stays; the client can retry checkout with
		// the same reference.
		logger.Error("create_registration", "status", "preference_error", "registration_id", registration.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":        upstreamMessage(err),
			"registration": registration,
		})
		return
	}

	logger.Info("create_registration", "status", "created", "registration_id", registration.ID, "categoria", registration.Category)
	writeJSON(w, http.StatusCreated, registrationCreatedResponse{
		Registration: registration,
		CheckoutURL:  checkoutURL,
	})
}

func (h *Handler) CreateGroupRegistration(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.registerLimiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	if !h.hasPaymentConfig() {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("create_group", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Participantes) > req.NumParticipantes {
		writeError(w, http.StatusBadRequest, "participantes exceed num_participantes")
		return
	}

	unitPrice, err := pricing.GroupUnitPrice(req.Categoria, req.NumParticipantes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	totalPrice := unitPrice * int64(req.NumParticipantes)

	participants := make([]models.Registration, 0, len(req.Participantes))
	for _, p := range req.Participantes {
		participants = append(participants, models.Registration{
			FirstName:   p.Nombre,
			LastName:    p.Apellido,
			Email:       p.Email,
			Phone:       p.Telefono,
			Document:    p.Documento,
			Subcategory: p.Subcategoria,
		})
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	group, roster, err := h.repo.CreateGroup(ctx, models.Group{
		Name:             req.NombreGrupo,
		Category:         req.Categoria,
		ParticipantCount: req.NumParticipantes,
		UnitPriceCOP:     unitPrice,
		TotalPriceCOP:    totalPrice,
		LeaderFirstName:  req.LiderNombre,
		LeaderLastName:   req.LiderApellido,
		LeaderEmail:      req.LiderEmail,
		LeaderPhone:      req.LiderTelefono,
		LeaderDocument:   req.LiderDocumento,
		LeaderCity:       req.LiderCiudad,
	}, participants)
	if err != nil {
		logger.Error("create_group", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	title, _ := pricing.Title(group.Category)
	checkoutURL, err := h.createCheckout(ctx, checkoutParams{
		Reference: group.ID,
		Category:  group.Category,
		Title:     title,
		Quantity:  group.ParticipantCount,
		UnitPrice: group.UnitPriceCOP,
		Name:      group.LeaderFirstName,
		Surname:   group.LeaderLastName,
		Email:     group.LeaderEmail,
		Phone:     group.LeaderPhone,
		Group:     true,
	})
	if err != nil {
		logger.Error("create_group", "status", "preference_error", "group_id", group.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": upstreamMessage(err),
			"group": group,
		})
		return
	}

	logger.Info("create_group", "status", "created", "group_id", group.ID, "num_participantes", group.ParticipantCount)
	writeJSON(w, http.StatusCreated, groupCreatedResponse{
		Group:        group,
		Participants: roster,
		CheckoutURL:  checkoutURL,
	})
}

func (h *Handler) AddGroupParticipant(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	groupID := strings.TrimSpace(chi.URLParam(r, "id"))

	var req groupParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	participant, err := h.repo.AddGroupParticipant(ctx, groupID, models.Registration{
		FirstName:   req.Nombre,
		LastName:    req.Apellido,
		Email:       req.Email,
		Phone:       req.Telefono,
		Document:    req.Documento,
		Subcategory: req.Subcategoria,
	})
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		logger.Error("add_group_participant", "status", "db_error", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	logger.Info("add_group_participant", "status", "created", "group_id", groupID, "registration_id", participant.ID, "estado_pago", participant.PaymentState)
	writeJSON(w, http.StatusCreated, participant)
}

func (h *Handler) GetRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	reference := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	resolved, err := h.repo.ResolveReference(ctx, reference)
	if err != nil {
		logger.Error("registration_status", "status", "db_error", "reference", reference, "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	switch resolved.Kind {
	case repository.MatchIndividual:
		writeJSON(w, http.StatusOK, registrationStatusResponse{
			Tipo:         "individual",
			Registration: resolved.Registration,
		})
	case repository.MatchGroup:
		participants, err := h.repo.ListGroupParticipants(ctx, resolved.Group.ID)
		if err != nil {
			logger.Error("registration_status", "status", "db_error", "reference", reference, "error", err)
			writeError(w, http.StatusInternalServerError, "db error")
			return
		}
		writeJSON(w, http.StatusOK, registrationStatusResponse{
			Tipo:         "grupo",
			Group:        resolved.Group,
			Participants: participants,
		})
	default:
		writeError(w, http.StatusNotFound, "registration not found")
	}
}

type checkoutParams struct {
	Reference string
	Category  string
	Title     string
	Quantity  int
	UnitPrice int64
	Name      string
	Surname   string
	Email     string
	Phone     string
	Group     bool
}

func (h *Handler) createCheckout(ctx context.Context, params checkoutParams) (string, error) {
	preference, err := h.mercadopago.CreatePreference(ctx, "cdzgr-"+params.Reference, mercadopago.PreferenceRequest{
		Items: []mercadopago.PreferenceItem{{
			ID:         params.Category,
			Title:      params.Title,
			Quantity:   params.Quantity,
			UnitPrice:  params.UnitPrice,
			CurrencyID: "COP",
		}},
		Payer: mercadopago.PreferencePayer{
			Name:    params.Name,
			Surname: params.Surname,
			Email:   params.Email,
			Phone:   mercadopago.PreferencePhone{Number: nonDigitRe.ReplaceAllString(params.Phone, "")},
		},
		BackURLs:            buildBackURLs(h.cfg.CheckoutReturnURL, params.Group),
		AutoReturn:          "approved",
		StatementDescriptor: "CAIDOS DEL ZARZO",
		ExternalReference:   params.Reference,
	})
	if err != nil {
		return "", err
	}
	return h.mercadopago.CheckoutURL(preference), nil
}

// buildBackURLs tags the three processor return URLs with the outcome
// and, for group checkouts, a type discriminator the wizard reads.
func buildBackURLs(base string, group bool) mercadopago.BackURLs {
	suffix := ""
	if group {
		suffix = "&tipo=grupo"
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return mercadopago.BackURLs{
		Success: base + separator + "inscripcion=ok" + suffix,
		Failure: base + separator + "inscripcion=error" + suffix,
		Pending: base + separator + "inscripcion=pendiente" + suffix,
	}
}

func upstreamMessage(err error) string {
	var apiErr *mercadopago.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return "payment provider error"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
