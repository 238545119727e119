// Package rest contains the core vocabulary of the Sif REST data source, which turns a
// table of input parameter rows into a table of structured results by invoking a REST
// endpoint once per row, in parallel, inferring a common output schema from a sample
// of the responses.
//
// This root package defines the types shared by every stage of a job (rows, request
// specifications, responses, output records) and the interfaces through which the
// host engine supplies rows, receives records and sends HTTP requests. The job package
// wires the stages together.
package rest
