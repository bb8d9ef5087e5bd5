package server

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// openapiPath 接口文档地址，Swagger UI 从这里加载
const openapiPath = "/openapi.yaml"

//go:embed openapi.yaml
var openapiDoc []byte

// registerDocs 注册接口文档与 Swagger UI，不需要认证
func registerDocs(r *gin.Engine) {
	r.GET(openapiPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", openapiDoc)
	})
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(openapiPath)))
}
