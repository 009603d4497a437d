package locale

// Key identifies a localized message. The string value is also the
// machine-readable code returned in response envelopes.
type Key string

const (
	ServerDBConnError   Key = "server.db_cnx_error"
	ServerDBConnSuccess Key = "server.db_cnx_success"
	ServerStart         Key = "server.start"
	ServerBadRequest    Key = "server.bad_request"
	ServerInternalError Key = "server.internal_error"
	ServerNotFound      Key = "server.not_found"
	ServerMethodDenied  Key = "server.method_not_allowed"

	EmptyID           Key = "db.empty_id"
	InvalidID         Key = "db.invalid_id"
	InvalidParam      Key = "db.invalid_param"
	QueryError        Key = "db.query_error"
	QueryNoData       Key = "db.query_no_data"
	ValidateError     Key = "db.validate_error"
	InsertSuccess     Key = "db.insert_success"
	InsertError       Key = "db.insert_error"
	IDNoResults       Key = "db.id_no_results"
	UpdateError       Key = "db.update_error"
	DeleteSuccess     Key = "db.delete_success"
	DeleteError       Key = "db.delete_error"
	DeleteIDNoResults Key = "db.delete_id_no_results"
	PasswordMatch     Key = "db.password_match"
	PasswordDontMatch Key = "db.password_dont_match"
	PasswordEmpty     Key = "db.password_empty"

	JWTCheckEmptyToken   Key = "jwt.check_empty_token"
	JWTCheckInvalidToken Key = "jwt.check_invalid_token"
)

// Translator resolves a key to text in one language.
type Translator interface {
	Text(key Key) string
}

// Keys is used as a passthrough translator when no catalog is configured.
type Keys struct{}

func (Keys) Text(key Key) string { return string(key) }

var builtin = map[string]map[Key]string{
	"en": {
		ServerDBConnError:   "Database connection error.",
		ServerDBConnSuccess: "Database connection successful.",
		ServerStart:         "Server started.",
		ServerBadRequest:    "Malformed request.",
		ServerInternalError: "Internal server error.",
		ServerNotFound:      "Route not found.",
		ServerMethodDenied:  "Method not allowed for this route.",

		EmptyID:           "ID field cannot be empty.",
		InvalidID:         "The specified ID is not valid.",
		InvalidParam:      "One or more query parameters are not valid integers.",
		QueryError:        "Error during query to the database.",
		QueryNoData:       "No records was found.",
		ValidateError:     "Validation error.",
		InsertSuccess:     "Insert operation successful.",
		InsertError:       "Error during insert operation.",
		IDNoResults:       "The specified ID does not exist.",
		UpdateError:       "Error during update operation.",
		DeleteSuccess:     "Successfully deleted.",
		DeleteError:       "Error during delete operation.",
		DeleteIDNoResults: "No record was found to delete with the specified ID.",
		PasswordMatch:     "Passwords match.",
		PasswordDontMatch: "Passwords dont match.",
		PasswordEmpty:     "Password field cannot be empty.",

		JWTCheckEmptyToken:   "The authentication token is required.",
		JWTCheckInvalidToken: "Invalid token.",
	},
	"es": {
		ServerDBConnError:   "Error al conectar con la base de datos.",
		ServerDBConnSuccess: "Conexión con la base de datos establecida.",
		ServerStart:         "Servidor iniciado.",
		ServerBadRequest:    "Solicitud mal formada.",
		ServerInternalError: "Error interno del servidor.",
		ServerNotFound:      "Ruta no encontrada.",
		ServerMethodDenied:  "Método no permitido para esta ruta.",

		EmptyID:           "El campo ID no puede estar vacío.",
		InvalidID:         "El ID especificado no es válido.",
		InvalidParam:      "Uno o más parámetros de consulta no son enteros válidos.",
		QueryError:        "Error durante la consulta a la base de datos.",
		QueryNoData:       "No se encontraron registros.",
		ValidateError:     "Error de validación.",
		InsertSuccess:     "Inserción exitosa.",
		InsertError:       "Error durante la inserción.",
		IDNoResults:       "El ID especificado no existe.",
		UpdateError:       "Error durante la actualización.",
		DeleteSuccess:     "Eliminado correctamente.",
		DeleteError:       "Error durante la eliminación.",
		DeleteIDNoResults: "No se encontró ningún registro para eliminar con el ID especificado.",
		PasswordMatch:     "Las contraseñas coinciden.",
		PasswordDontMatch: "Las contraseñas no coinciden.",
		PasswordEmpty:     "El campo contraseña no puede estar vacío.",

		JWTCheckEmptyToken:   "Se requiere el token de autenticación.",
		JWTCheckInvalidToken: "Token inválido.",
	},
}
