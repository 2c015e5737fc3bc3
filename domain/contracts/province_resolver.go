package contracts

import "nhbrcforms/domain/province"

// ProvinceResolver maps a province name onto its SharePoint site and list.
type ProvinceResolver interface {
	Resolve(name string) (province.Target, error)
}
