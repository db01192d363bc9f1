package wrapper

import "github.com/gofiber/fiber/v2"

// JSONResult is the envelope of every admin HTTP response body. Code is
// the HTTP status and is not serialized.
type JSONResult struct {
	Code    int         `json:"-"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func ResponseSuccess(httpCode int, data interface{}) JSONResult {
	return JSONResult{Code: httpCode, Success: true, Message: "Success", Data: data}
}

func ResponseFailed(httpCode int, message string, data interface{}) JSONResult {
	return JSONResult{Code: httpCode, Success: false, Message: message, Data: data}
}

// Send writes r with its own status code.
func (r JSONResult) Send(c *fiber.Ctx) error {
	code := r.Code
	if code == 0 {
		code = fiber.StatusOK
	}
	return c.Status(code).JSON(r)
}
