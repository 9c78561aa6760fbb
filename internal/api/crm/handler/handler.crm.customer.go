// Package handler - các Fiber handler cho domain crm.
package handler

import (
	basehdl "sistema_restaurante/internal/api/base/handler"
	crmmodels "sistema_restaurante/internal/api/crm/models"
	crmsvc "sistema_restaurante/internal/api/crm/service"
)

// CrmCustomerHandler xử lý CRUD khách hàng cho console.
type CrmCustomerHandler struct {
	*basehdl.BaseHandler[crmmodels.CrmCustomer, crmmodels.CrmCustomer, crmmodels.CrmCustomer]
	customerService *crmsvc.CrmCustomerService
}

// NewCrmCustomerHandler tạo mới CrmCustomerHandler
func NewCrmCustomerHandler(customerService *crmsvc.CrmCustomerService) *CrmCustomerHandler {
	return &CrmCustomerHandler{
		BaseHandler:     basehdl.NewBaseHandler[crmmodels.CrmCustomer, crmmodels.CrmCustomer, crmmodels.CrmCustomer](customerService),
		customerService: customerService,
	}
}
