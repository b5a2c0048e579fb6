package domain

import "errors"

const (
	msgConfigurationMissing = "Falta la API Key. Define AUDIT_API_KEY en el entorno del servicio y reinícialo."
	msgConfigurationInvalid = "La API Key configurada no es válida. Revisa la configuración del servicio."
	msgPermissionDenied     = "Error de permisos (403): Tu API Key podría ser incorrecta o no tener acceso."
	msgQuotaExceeded        = "Límite de cuota excedido (429): Has hecho demasiadas peticiones."
	msgEmptyResponse        = "La IA no generó respuesta (texto vacío)."
	msgParseFailure         = "La respuesta de la IA no cumple el formato de informe esperado."
	msgUnsupportedFile      = "Por favor sube solo archivos PDF."
	msgInvalidInput         = "El plan debe tener al menos 20 caracteres o adjuntar un PDF."
	msgAnalysisInProgress   = "Ya hay un análisis en curso. Espera a que termine."
	msgSessionNotFound      = "La sesión de auditoría no existe o ha expirado."
	msgTemporary            = "El servicio de IA no está disponible temporalmente. Inténtalo más tarde."
	msgUnknown              = "Error desconocido en el servicio de auditoría"
)

// UserMessage returns the text shown to the end user for err. Transport
// failures surface the provider's own message unchanged.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrConfigurationMissing):
		return msgConfigurationMissing
	case IsKind(err, ErrConfigurationInvalid):
		return msgConfigurationInvalid
	case IsKind(err, ErrPermissionDenied):
		return msgPermissionDenied
	case IsKind(err, ErrQuotaExceeded):
		return msgQuotaExceeded
	case IsKind(err, ErrEmptyResponse):
		return msgEmptyResponse
	case IsKind(err, ErrParseFailure):
		return msgParseFailure
	case IsKind(err, ErrUnsupportedFile):
		return msgUnsupportedFile
	case IsKind(err, ErrInvalidInput):
		return msgInvalidInput
	case IsKind(err, ErrAnalysisInProgress):
		return msgAnalysisInProgress
	case IsKind(err, ErrSessionNotFound):
		return msgSessionNotFound
	case IsKind(err, ErrTemporary):
		return msgTemporary
	case IsKind(err, ErrTransport):
		if msg := causeMessage(err, ErrTransport); msg != "" {
			return msg
		}
		return msgUnknown
	default:
		if msg := err.Error(); msg != "" {
			return msg
		}
		return msgUnknown
	}
}

// Remediation returns setup steps for errors the operator can fix by
// correcting the provider credential. Other errors return nil.
func Remediation(err error) []string {
	if !IsKind(err, ErrConfigurationMissing) &&
		!IsKind(err, ErrConfigurationInvalid) &&
		!IsKind(err, ErrPermissionDenied) {
		return nil
	}
	return []string{
		"Define la variable AUDIT_API_KEY (o GEMINI_API_KEY) en el entorno del servicio, o la clave audit.api_key en el fichero indicado por CONFIG_FILE.",
		"Usa una clave real del proveedor; por ejemplo, las claves de Gemini empiezan por AIzaSy.",
		"Reinicia el servicio para que cargue la nueva configuración.",
	}
}

// causeMessage finds the error wrapped next to kind by WrapError and returns
// its text.
func causeMessage(err, kind error) string {
	for err != nil {
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			parts := multi.Unwrap()
			for i, part := range parts {
				if part == kind && i+1 < len(parts) {
					return parts[i+1].Error()
				}
			}
			for _, part := range parts {
				if msg := causeMessage(part, kind); msg != "" {
					return msg
				}
			}
			return ""
		}
		err = errors.Unwrap(err)
	}
	return ""
}
