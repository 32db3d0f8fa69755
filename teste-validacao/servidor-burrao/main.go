package main

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Upstream propositalmente instável para validar o circuit breaker na mão:
// /showTela responde 500 a cada 3 requisições.
func main() {
	var hits atomic.Int64

	http.HandleFunc("/showTela", func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n%3 == 0 {
			fmt.Println("Log: respondendo 500 de propósito (hit", n, ")")
			http.Error(w, "quebrei", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>Tela do Sistema</h1><p>Requisição recebida com sucesso!</p>")
		fmt.Println("Log: Alguém acessou o endpoint /showTela")
	})

	fmt.Println("Servidor rodando em http://localhost:8081")
	err := http.ListenAndServe(":8081", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
