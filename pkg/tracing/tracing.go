// Package tracing 初始化OpenTelemetry追踪并提供取用辅助
//
// 一次下单在服务内要穿过HTTP中间件、用例编排、批量查书、
// 校验落库、发事件这几层,慢了之后光看日志很难说清慢在哪。
// 追踪把这条链路画成树:
//
//	POST /api/v1/orders           58ms
//	├─ FindBooksByIDs             12ms
//	├─ SaveOrderWithValidation    41ms ← 瓶颈
//	└─ PublishOrderCreated         2ms
//
// 约定:
//   - TraceID标识整条链路,链上所有Span共享;SpanID标识单个操作
//   - Span名用操作名(PlaceOrder),动态值放属性(order_id=42),
//     否则Jaeger里同一操作会裂成无数个名字
//   - 必须用StartSpan返回的ctx往下传,调用树才接得起来
//   - 日志想关联追踪,用ExtractTraceID(ctx)取ID一起打出去
//
// 导出走OTLP gRPC(端点形如localhost:4317,不带协议前缀),
// Jaeger 1.35+原生收OTLP;换Zipkin/Datadog只动Collector配置
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer 装配全局TracerProvider,返回退出时的刷新函数
//
//	shutdown, err := tracing.InitTracer("bookshop-api", cfg.Tracing.Endpoint)
//	...
//	defer shutdown(context.Background())
//
// gRPC导出器是惰性拨号的,Collector不在线InitTracer也能成功,
// 只是shutdown时的flush会报错;所以它适合开发环境常开。
// 采样率100%(AlwaysSample),生产应换成TraceIDRatioBased
func InitTracer(serviceName, endpoint string) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(), // 本地Collector走明文
	)
	if err != nil {
		return nil, fmt.Errorf("构造OTLP导出器: %w", err)
	}

	// service.name让Jaeger按服务分组,是唯一必带的资源属性
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("构造资源属性: %w", err)
	}

	// Batcher攒够一批才发(默认2秒或512条),比逐条发省得多
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	// 挂到全局:业务代码和第三方库都从otel.Tracer()取,
	// 不用层层传Provider
	otel.SetTracerProvider(tp)

	// 跨服务传播TraceID用W3C traceparent头,外加Baggage键值对
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		// flush最多等5秒,退出别被Collector卡死
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// StartSpan 开一个Span
// ctx里已有Span则成为它的子Span,否则是根Span。
// 返回的ctx要继续往下游传,span用完defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName)
}

// ExtractTraceID 取当前链路的TraceID(32位十六进制)
// ctx里没有有效Span时返回空串;典型用法是打进结构化日志,
// 从日志一跳定位到Jaeger里的整条链路
func ExtractTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// ExtractSpanID 取当前Span的SpanID(16位十六进制)
func ExtractSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
