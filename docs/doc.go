// Package docs provides generated OpenAPI documentation.
//
// Wikitutor API
//
//	@title			Wikitutor API
//	@version		1.0
//	@description	Turns Wikipedia articles into section-by-section explanations and quizzes, streamed as newline-delimited JSON.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/wikitutor
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/wikitutor/serve.go -o . --outputTypes go --parseDependency --parseInternal
