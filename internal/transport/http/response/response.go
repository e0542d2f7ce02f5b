package response

import "github.com/gin-gonic/gin"

// Every failure is a JSON {"error": message} body with an HTTP status;
// successes return their documented payload directly. The response
// schema is part of the frontend contract.

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, data)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"error": message})
}
