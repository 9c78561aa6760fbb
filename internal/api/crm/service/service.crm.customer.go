// Package crmsvc chứa logic nghiệp vụ domain crm.
package crmsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "sistema_restaurante/internal/api/base/service"
	crmmodels "sistema_restaurante/internal/api/crm/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/global"
)

// CrmCustomerService là cấu trúc chứa các phương thức cho khách hàng (crm_customers).
type CrmCustomerService struct {
	*basesvc.BaseServiceMongoImpl[crmmodels.CrmCustomer]
}

// NewCrmCustomerService tạo mới CrmCustomerService
func NewCrmCustomerService() (*CrmCustomerService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.CrmCustomers)
	if !exist {
		return nil, fmt.Errorf("failed to get crm_customers collection: %v", common.ErrNotFound)
	}
	return &CrmCustomerService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[crmmodels.CrmCustomer](coll),
	}, nil
}

// LookupNamesByNormalizedPhones tra tên khách theo lô số điện thoại chuẩn hóa.
// Trả về map key -> tên; key không có khách thì vắng mặt.
// Một khách có nhiều số: mọi số đều trỏ về cùng một tên.
func (s *CrmCustomerService) LookupNamesByNormalizedPhones(ctx context.Context, orgID primitive.ObjectID, keys []string) (map[string]string, error) {
	names := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return names, nil
	}

	filter := bson.M{
		"ownerOrganizationId": orgID,
		"phoneKeys":           bson.M{"$in": keys},
	}
	customers, err := s.Find(ctx, filter, nil)
	if err != nil {
		return nil, err
	}

	for _, customer := range customers {
		for _, key := range customer.PhoneKeys {
			if _, ok := names[key]; !ok {
				names[key] = customer.Name
			}
		}
	}
	return names, nil
}

// FindByPhoneKey tìm một khách theo số điện thoại chuẩn hóa.
func (s *CrmCustomerService) FindByPhoneKey(ctx context.Context, orgID primitive.ObjectID, key string) (crmmodels.CrmCustomer, error) {
	filter := bson.M{
		"ownerOrganizationId": orgID,
		"phoneKeys":           key,
	}
	return s.FindOne(ctx, filter, nil)
}
