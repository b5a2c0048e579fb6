package intake

// SamplePlan is a deliberately weak plan for trying the auditor.
const SamplePlan = `PLAN DE SEGURIDAD INFORMÁTICA - EMPRESA X
1. Control de Acceso: Todos los empleados deben tener usuario y contraseña. Las contraseñas se cambian anualmente.
2. Antivirus: Se instalará antivirus gratuito en los servidores.
3. Copias de Seguridad: Se harán copias manuales los viernes en un disco duro externo que guarda el gerente.
4. Red Wi-Fi: La contraseña es "12345678" para facilitar el acceso a invitados.`

// LoadSample replaces the draft with SamplePlan.
func (d *Draft) LoadSample() {
	d.SetText(SamplePlan)
}
