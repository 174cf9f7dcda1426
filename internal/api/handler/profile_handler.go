package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/identity-service/internal/core/ports"
)

// ProfileHandler serves the role-scoped profile endpoints.
type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// UpsertPatient creates or updates the caller's patient profile.
//
// @Summary      Create or update my patient profile
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      patientProfileRequest  true  "Fields to set"
// @Success      200   {object}  domain.PatientProfile
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/patients/profile [put]
func (h *ProfileHandler) UpsertPatient(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req patientProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "date_of_birth must be a date formatted as 2006-01-02")
	}

	profile, err := h.service.UpsertPatient(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// GetPatient returns the caller's patient profile.
//
// @Summary      My patient profile
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PatientProfile
// @Failure      404  {object}  errorResponse
// @Router       /v1/patients/profile [get]
func (h *ProfileHandler) GetPatient(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.service.PatientProfile(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// PatientByAccount returns any patient profile by account id.
//
// @Summary      Patient profile by account
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        account_id  path  int  true  "Account id"
// @Success      200  {object}  domain.PatientProfile
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/patients/{account_id} [get]
func (h *ProfileHandler) PatientByAccount(c echo.Context) error {
	id, err := pathID(c, "account_id")
	if err != nil {
		return err
	}
	profile, err := h.service.PatientByAccount(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// ListPatients lists patient profiles for staff.
//
// @Summary      List patient profiles
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        name         query  string  false  "First or last name contains"
// @Param        active_only  query  bool    false  "Only active profiles"
// @Param        limit        query  int     false  "Page size, at most 200"
// @Param        offset       query  int     false  "Profiles to skip"
// @Success      200  {array}   domain.PatientProfile
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/patients [get]
func (h *ProfileHandler) ListPatients(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req listProfilesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	profiles, err := h.service.ListPatients(c.Request().Context(), p, req.toFilter())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles)
}

// DeactivatePatient marks a patient profile inactive.
//
// @Summary      Deactivate a patient profile
// @Tags         patients
// @Security     BearerAuth
// @Param        account_id  path  int  true  "Account id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/patients/{account_id} [delete]
func (h *ProfileHandler) DeactivatePatient(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "account_id")
	if err != nil {
		return err
	}
	if err := h.service.DeactivatePatient(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpsertDoctor creates or updates the caller's doctor profile.
//
// @Summary      Create or update my doctor profile
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      doctorProfileRequest  true  "Fields to set"
// @Success      200   {object}  domain.DoctorProfile
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/doctors/profile [put]
func (h *ProfileHandler) UpsertDoctor(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req doctorProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.service.UpsertDoctor(c.Request().Context(), p, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// GetDoctor returns the caller's doctor profile.
//
// @Summary      My doctor profile
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.DoctorProfile
// @Failure      404  {object}  errorResponse
// @Router       /v1/doctors/profile [get]
func (h *ProfileHandler) GetDoctor(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.service.DoctorProfile(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// DoctorByAccount returns any doctor profile by account id.
//
// @Summary      Doctor profile by account
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        account_id  path  int  true  "Account id"
// @Success      200  {object}  domain.DoctorProfile
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/doctors/{account_id} [get]
func (h *ProfileHandler) DoctorByAccount(c echo.Context) error {
	id, err := pathID(c, "account_id")
	if err != nil {
		return err
	}
	profile, err := h.service.DoctorByAccount(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// ListDoctors lists doctor profiles for admins.
//
// @Summary      List doctor profiles
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        name            query  string  false  "First or last name contains"
// @Param        specialization  query  string  false  "Exact specialization, any case"
// @Param        active_only     query  bool    false  "Only active profiles"
// @Param        limit           query  int     false  "Page size, at most 200"
// @Param        offset          query  int     false  "Profiles to skip"
// @Success      200  {array}   domain.DoctorProfile
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/doctors [get]
func (h *ProfileHandler) ListDoctors(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req listProfilesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	profiles, err := h.service.ListDoctors(c.Request().Context(), p, req.toFilter())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles)
}

// DeactivateDoctor marks a doctor profile inactive and unavailable.
//
// @Summary      Deactivate a doctor profile
// @Tags         doctors
// @Security     BearerAuth
// @Param        account_id  path  int  true  "Account id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/doctors/{account_id} [delete]
func (h *ProfileHandler) DeactivateDoctor(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "account_id")
	if err != nil {
		return err
	}
	if err := h.service.DeactivateDoctor(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpsertAdmin creates or updates the caller's admin profile.
//
// @Summary      Create or update my admin profile
// @Tags         admins
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      adminProfileRequest  true  "Fields to set"
// @Success      200   {object}  domain.AdminProfile
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admins/profile [put]
func (h *ProfileHandler) UpsertAdmin(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req adminProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.service.UpsertAdmin(c.Request().Context(), p, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// GetAdmin returns the caller's admin profile.
//
// @Summary      My admin profile
// @Tags         admins
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AdminProfile
// @Failure      404  {object}  errorResponse
// @Router       /v1/admins/profile [get]
func (h *ProfileHandler) GetAdmin(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.service.AdminProfile(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
