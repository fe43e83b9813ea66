// Package domain define os tipos e contratos do days-api: datas, histórico de
// requisições, estatísticas e controle de admissão.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Tudo aqui é testável com funções puras e fakes.
package domain
