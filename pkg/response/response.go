package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/chenxi/bookshop/pkg/errors"
	"github.com/chenxi/bookshop/pkg/logger"
)

// Response 统一响应信封
// 业务结果一律HTTP 200,客户端只看code:0成功,非0按
// pkg/errors的分段解释。分页字段放在各接口自己的Data结构里,
// 这样swagger能给出精确的响应类型
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
// 从错误链提取AppError决定code;底层原因只记日志,
// 返回体里只有用户能看的Message
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)

	if appErr.Err != nil {
		logger.L().Error("请求处理失败",
			"path", c.FullPath(),
			"code", appErr.Code,
			"err", appErr.Err,
		)
	}

	c.JSON(http.StatusOK, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorWithCode 指定错误码与消息的错误响应
// Handler在参数绑定失败这类还没产生error值的场合用它
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ValidationFailed 保存前校验未通过的响应
// 和Error分开是因为性质不同:校验失败是预期内的业务结果,
// 带字段级明细让前端在表单上对应标红;fields是
// []validation.FieldError,按其json tag序列化
func ValidationFailed(c *gin.Context, fields interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    apperrors.ErrCodeValidationFailed,
		Message: "数据校验未通过",
		Data:    gin.H{"errors": fields},
	})
}
