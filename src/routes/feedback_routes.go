package routes

import (
	"feedback-api/src/controllers"

	"github.com/gofiber/fiber/v2"
)

// feedbackRoutes จัดการเส้นทางสำหรับ Feedback API
// sub-path คงที่ต้องมาก่อน /:feedback_id
func feedbackRoutes(app *fiber.App, fc *controllers.FeedbackController) {
	app.Post("/feedback", fc.SubmitFeedback)

	feedback := app.Group("/feedback/:package")
	feedback.Get("/", fc.ListFeedback)
	feedback.Get("/user/:user_id", fc.ListUserFeedback)
	feedback.Get("/average-rating", fc.GetAverageRating)
	feedback.Get("/stats", fc.GetStats)
	feedback.Get("/search", fc.SearchFeedback)
	feedback.Get("/recent", fc.RecentFeedback)
	feedback.Get("/:feedback_id", fc.GetFeedback)

	feedback.Delete("/form/:form_id", fc.DeleteFormFeedback)
	feedback.Delete("/:feedback_id", fc.DeleteFeedback)
	feedback.Delete("/", fc.DeletePackageFeedback)
}
