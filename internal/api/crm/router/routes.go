// Package router đăng ký các route thuộc domain CRM: customers (CRUD).
package router

import (
	"github.com/gofiber/fiber/v3"

	crmhdl "sistema_restaurante/internal/api/crm/handler"
	crmsvc "sistema_restaurante/internal/api/crm/service"
	apirouter "sistema_restaurante/internal/api/router"
)

// NewRegister tạo hàm đăng ký route CRM với service đã khởi tạo sẵn.
func NewRegister(customerService *crmsvc.CrmCustomerService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		customerHandler := crmhdl.NewCrmCustomerHandler(customerService)
		r.RegisterCRUDRoutes(v1, "/crm/customers", customerHandler, apirouter.ReadWriteConfig)
		return nil
	}
}
