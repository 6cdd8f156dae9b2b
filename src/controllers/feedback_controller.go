package controllers

import (
	"time"

	"feedback-api/src/models"
	"feedback-api/src/services/feedback"
	"feedback-api/src/utils"

	"github.com/gofiber/fiber/v2"
)

type FeedbackController struct {
	base
	feedback *feedback.Service
}

func NewFeedbackController(svc *feedback.Service, timeout time.Duration) *FeedbackController {
	return &FeedbackController{base: newBase(timeout), feedback: svc}
}

// SubmitFeedback godoc
// @Summary      Submit feedback
// @Description  Store one feedback entry against the active form of a package
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body body models.SubmitFeedbackRequest true "Feedback object"
// @Success      201  {object}  models.Feedback
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback [post]
func (fc *FeedbackController) SubmitFeedback(c *fiber.Ctx) error {
	var request models.SubmitFeedbackRequest
	if err := c.BodyParser(&request); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	fb, err := fc.feedback.Submit(ctx, &request)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}

// ListFeedback godoc
// @Summary      List feedback of a package
// @Description  Oldest first, optionally restricted to one form
// @Tags         feedback
// @Produce      json
// @Param        package  path   string  true   "Package name"
// @Param        form_id  query  string  false  "Form ID"
// @Success      200  {array}   models.Feedback
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package} [get]
func (fc *FeedbackController) ListFeedback(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	list, err := fc.feedback.ListByPackage(ctx, c.Params("package"), c.Query("form_id"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GetFeedback godoc
// @Summary      Get one feedback entry
// @Tags         feedback
// @Produce      json
// @Param        package      path  string  true  "Package name"
// @Param        feedback_id  path  string  true  "Feedback ID"
// @Success      200  {object}  models.Feedback
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/{feedback_id} [get]
func (fc *FeedbackController) GetFeedback(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	fb, err := fc.feedback.GetByID(ctx, c.Params("package"), c.Params("feedback_id"))
	if err != nil {
		return err
	}
	return c.JSON(fb)
}

// ListUserFeedback godoc
// @Summary      List feedback of one user
// @Description  Empty list when the package has feedback but none from this user
// @Tags         feedback
// @Produce      json
// @Param        package  path  string  true  "Package name"
// @Param        user_id  path  string  true  "User ID"
// @Success      200  {array}   models.Feedback
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/user/{user_id} [get]
func (fc *FeedbackController) ListUserFeedback(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	list, err := fc.feedback.ListByUser(ctx, c.Params("package"), c.Params("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GetAverageRating godoc
// @Summary      Average rating
// @Tags         feedback
// @Produce      json
// @Param        package  path   string  true   "Package name"
// @Param        form_id  query  string  false  "Form ID"
// @Success      200  {object}  models.AverageRating
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/average-rating [get]
func (fc *FeedbackController) GetAverageRating(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	avg, err := fc.feedback.AverageRating(ctx, c.Params("package"), c.Query("form_id"))
	if err != nil {
		return err
	}
	return c.JSON(avg)
}

// GetStats godoc
// @Summary      Rating statistics
// @Description  Count, average and a 1 to 5 breakdown of the ratings
// @Tags         feedback
// @Produce      json
// @Param        package  path   string  true   "Package name"
// @Param        form_id  query  string  false  "Form ID"
// @Success      200  {object}  models.FeedbackStats
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/stats [get]
func (fc *FeedbackController) GetStats(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	stats, err := fc.feedback.Stats(ctx, c.Params("package"), c.Query("form_id"))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// SearchFeedback godoc
// @Summary      Search feedback messages
// @Description  Case-insensitive substring match on message. ?q is accepted when ?query is absent.
// @Tags         feedback
// @Produce      json
// @Param        package  path   string  true   "Package name"
// @Param        query    query  string  false  "Text to look for"
// @Success      200  {array}   models.Feedback
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/search [get]
func (fc *FeedbackController) SearchFeedback(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		query = c.Query("q")
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	list, err := fc.feedback.SearchMessages(ctx, c.Params("package"), query)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// RecentFeedback godoc
// @Summary      Most recent feedback
// @Description  Newest first, at most limit entries (default 10)
// @Tags         feedback
// @Produce      json
// @Param        package  path   string  true   "Package name"
// @Param        form_id  query  string  false  "Form ID"
// @Param        limit    query  int     false  "Maximum entries"
// @Success      200  {array}   models.Feedback
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/recent [get]
func (fc *FeedbackController) RecentFeedback(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	ctx, cancel := fc.requestContext(c)
	defer cancel()

	list, err := fc.feedback.Recent(ctx, c.Params("package"), c.Query("form_id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// DeleteFeedback godoc
// @Summary      Delete one feedback entry
// @Tags         feedback
// @Produce      json
// @Param        package      path  string  true  "Package name"
// @Param        feedback_id  path  string  true  "Feedback ID"
// @Success      200  {object}  models.DeleteResult
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/{feedback_id} [delete]
func (fc *FeedbackController) DeleteFeedback(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	result, err := fc.feedback.Delete(ctx, c.Params("package"), c.Params("feedback_id"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// DeleteFormFeedback godoc
// @Summary      Delete the feedback of one form
// @Tags         feedback
// @Produce      json
// @Param        package  path  string  true  "Package name"
// @Param        form_id  path  string  true  "Form ID"
// @Success      200  {object}  models.DeleteResult
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package}/form/{form_id} [delete]
func (fc *FeedbackController) DeleteFormFeedback(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	result, err := fc.feedback.DeleteByForm(ctx, c.Params("package"), c.Params("form_id"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// DeletePackageFeedback godoc
// @Summary      Delete all feedback of a package
// @Tags         feedback
// @Produce      json
// @Param        package  path  string  true  "Package name"
// @Success      200  {object}  models.DeleteResult
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /feedback/{package} [delete]
func (fc *FeedbackController) DeletePackageFeedback(c *fiber.Ctx) error {
	ctx, cancel := fc.requestContext(c)
	defer cancel()

	result, err := fc.feedback.DeleteByPackage(ctx, c.Params("package"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}
