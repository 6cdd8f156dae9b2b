package routes

import (
	"feedback-api/src/controllers"

	"github.com/gofiber/fiber/v2"
)

// formRoutes กำหนด route สำหรับ form management
// path คงที่ต้องลงทะเบียนก่อน /:package
func formRoutes(app *fiber.App, fc *controllers.FormController) {
	app.Post("/admin/forms", fc.CreateForm)

	forms := app.Group("/forms")
	forms.Get("/packages", fc.ListPackages)
	forms.Get("/all", fc.ListAllForms)
	forms.Get("/search", fc.SearchForms)
	forms.Put("/:form_id/activate", fc.ActivateForm)
	forms.Get("/:package/all", fc.ListPackageForms)
	forms.Get("/:package", fc.GetActiveForm)
}
