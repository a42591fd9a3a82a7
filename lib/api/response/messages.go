package response

// Client-facing messages. The admin UI is used by Spanish-speaking staff, so
// every message the API returns lives here.
const (
	MsgInvalidRequest     = "Solicitud inválida"
	MsgInvalidId          = "Identificador de entrada inválido"
	MsgInvalidSize        = "Tamaño de imagen inválido"
	MsgMissingToken       = "Token de acceso no proporcionado"
	MsgUnauthorized       = "No autorizado"
	MsgInvalidCredentials = "Usuario o contraseña incorrectos"
	MsgSessionExpired     = "Sesión expirada, inicie sesión de nuevo"
	MsgPassNotFound       = "Entrada no encontrada"
	MsgScanRejected       = "Entrada no encontrada o ya registrada"
	MsgRouteNotFound      = "Recurso no encontrado"
	MsgNotAllowed         = "Método no permitido"
	MsgInternal           = "Error interno del servidor"
)

func Invalid(detail string) string {
	if detail == "" {
		return MsgInvalidRequest
	}
	return MsgInvalidRequest + ": " + detail
}
