// Package routing mantém a tabela de rotas do gateway: registro de patterns
// (literais ou com segmentos {param}) e resolução de paths de entrada para o
// serviço de backend dono da rota, com contagem de hits por rota.
package routing
