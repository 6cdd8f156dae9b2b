package controllers

import (
	"time"

	"feedback-api/src/models"
	"feedback-api/src/services/forms"
	"feedback-api/src/utils"

	"github.com/gofiber/fiber/v2"
)

type FormController struct {
	base
	forms *forms.Service
}

func NewFormController(svc *forms.Service, timeout time.Duration) *FormController {
	return &FormController{base: newBase(timeout), forms: svc}
}

// CreateForm godoc
// @Summary      Create a feedback form
// @Description  Create a form for a package. A form created active replaces the package's active form.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        body body models.CreateFormRequest true "Form object"
// @Success      201  {object}  models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /admin/forms [post]
func (fc *FormController) CreateForm(c *fiber.Ctx) error {
	var request models.CreateFormRequest
	if err := c.BodyParser(&request); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	form, err := fc.forms.CreateForm(ctx, &request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(form)
}

// ListPackages godoc
// @Summary      List packages
// @Description  Distinct package names that own at least one form
// @Tags         forms
// @Produce      json
// @Success      200  {array}   string
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms/packages [get]
func (fc *FormController) ListPackages(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	packages, err := fc.forms.ListPackages(ctx)
	if err != nil {
		return err
	}
	return c.JSON(packages)
}

// GetActiveForm godoc
// @Summary      Get the active form of a package
// @Tags         forms
// @Produce      json
// @Param        package  path  string  true  "Package name"
// @Success      200  {object}  models.Form
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms/{package} [get]
func (fc *FormController) GetActiveForm(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	form, err := fc.forms.GetActiveForm(ctx, c.Params("package"))
	if err != nil {
		return err
	}
	return c.JSON(form)
}

// ListPackageForms godoc
// @Summary      List the forms of a package
// @Description  Newest first. ?active=true|false (or ?status=active|inactive) filters on the active flag.
// @Tags         forms
// @Produce      json
// @Param        package  path   string  true   "Package name"
// @Param        active   query  bool    false  "Active flag"
// @Success      200  {array}   models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms/{package}/all [get]
func (fc *FormController) ListPackageForms(c *fiber.Ctx) error {
	active, err := parseActive(c)
	if err != nil {
		return err
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	list, err := fc.forms.ListForms(ctx, c.Params("package"), active)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// ListAllForms godoc
// @Summary      List every form
// @Tags         forms
// @Produce      json
// @Param        active  query  bool  false  "Active flag"
// @Success      200  {array}   models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms/all [get]
func (fc *FormController) ListAllForms(c *fiber.Ctx) error {
	active, err := parseActive(c)
	if err != nil {
		return err
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	list, err := fc.forms.ListAllForms(ctx, active)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// ActivateForm godoc
// @Summary      Activate or deactivate a form
// @Description  Activating a form deactivates every other form of its package atomically.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        form_id  path  string                      true  "Form ID"
// @Param        body     body  models.ActivateFormRequest  true  "Active flag"
// @Success      200  {object}  models.ActivateFormResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms/{form_id}/activate [put]
func (fc *FormController) ActivateForm(c *fiber.Ctx) error {
	var request models.ActivateFormRequest
	if err := c.BodyParser(&request); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	result, err := fc.forms.ActivateForm(ctx, c.Params("form_id"), &request)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// SearchForms godoc
// @Summary      Search forms
// @Description  Every filter is optional; title is a case-insensitive substring. No match is an empty list.
// @Tags         forms
// @Produce      json
// @Param        package_name  query  string  false  "Package name"
// @Param        title         query  string  false  "Title substring"
// @Param        form_type     query  string  false  "rating, free_text or rating_text"
// @Param        active        query  bool    false  "Active flag"
// @Success      200  {array}   models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms/search [get]
func (fc *FormController) SearchForms(c *fiber.Ctx) error {
	active, err := parseActive(c)
	if err != nil {
		return err
	}
	params := models.FormSearchParams{
		PackageName: c.Query("package_name"),
		Title:       c.Query("title"),
		FormType:    models.FormType(c.Query("form_type")),
		Active:      active,
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	list, err := fc.forms.SearchForms(ctx, params)
	if err != nil {
		return err
	}
	return c.JSON(list)
}
