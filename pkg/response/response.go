package response

import (
	"errors"
	"net/http"

	"go-storefront/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构体
type Response struct {
	Code   int               `json:"code"`             // 业务码
	Msg    string            `json:"msg"`              // 提示信息
	Data   interface{}       `json:"data,omitempty"`   // 数据
	Fields map[string]string `json:"fields,omitempty"` // 表单字段错误
}

// Success 成功响应 (Code=200)
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code: 200,
		Msg:  "success",
		Data: data,
	})
}

// Created 新建资源 (Code=201)
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, Response{
		Code: 201,
		Msg:  "created",
		Data: data,
	})
}

// Error 失败响应
func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.JSON(httpStatus, Response{
		Code: httpStatus, // 这里简单将 HTTP 状态码作为业务码，也可以自定义
		Msg:  msg,
		Data: nil,
	})
}

// StatusOf 业务错误分类 -> HTTP 状态码
func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail 根据错误分类输出响应; 未分类的错误只记录日志, 不把内部信息返回给客户端
func Fail(ctx *gin.Context, log *zap.Logger, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("method", ctx.Request.Method),
			zap.Error(err))
		Error(ctx, status, "internal error")
		return
	}

	resp := Response{Code: status, Msg: err.Error()}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		resp.Msg = appErr.Message
		resp.Fields = appErr.Fields
	}
	ctx.JSON(status, resp)
}
