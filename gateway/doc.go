// Package gateway compõe os middlewares de controle de tráfego em um único
// pipeline HTTP: versionamento, roteamento, rate limit, circuit breaker e
// transformação de request/response.
//
// O uso típico é construir um Gateway a partir de Config (FromEnv ou
// DefaultConfig), registrar serviços/regras e envolver o handler de backend
// com Middleware:
//
//	gw, err := gateway.New(cfg, gateway.WithRedis(rdb))
//	...
//	gw.RegisterService("users", "/users", []string{"GET"}, "1", nil)
//	http.ListenAndServe(addr, gw.Middleware(proxy))
package gateway
