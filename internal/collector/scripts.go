package collector

import "fmt"

// UninstallRoots are the HKLM registry keys enumerated for installed
// software, 32-bit view first.
var UninstallRoots = []string{
	`SOFTWARE\Wow6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// softwareScript emits one compressed JSON object per product subkey of
// root as soon as it has been read.
func softwareScript(root string) string {
	return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
$root = 'HKLM:\%s'
if (-not (Test-Path -LiteralPath $root)) { return }
Get-ChildItem -LiteralPath $root | Where-Object { $_.PSChildName.StartsWith('{') } | ForEach-Object {
  $p = Get-ItemProperty -LiteralPath $_.PSPath
  [pscustomobject]@{
    Key             = $_.PSChildName
    DisplayName     = $p.DisplayName
    Publisher       = $p.Publisher
    DisplayVersion  = $p.DisplayVersion
    InstallDate     = $p.InstallDate
    ParentKeyName   = $p.ParentKeyName
    HelpLink        = $p.HelpLink
    Comment         = $p.Comment
    URLInfoAbout    = $p.URLInfoAbout
    NoRemove        = $p.NoRemove
    SystemComponent = $p.SystemComponent
    EstimatedSize   = $p.EstimatedSize
  } | ConvertTo-Json -Compress
}`, root)
}

const hostInfoScript = `$ErrorActionPreference = 'Stop'
function iso($t) { if ($t) { $t.ToUniversalTime().ToString('o') } else { $null } }
$os = Get-CimInstance -ClassName Win32_OperatingSystem
$cs = Get-CimInstance -ClassName Win32_ComputerSystem
$bios = Get-CimInstance -ClassName Win32_BIOS | Select-Object -First 1
[pscustomobject]@{
  LocalDateTime  = iso $os.LocalDateTime
  LastBootUpTime = iso $os.LastBootUpTime
  Caption        = $os.Caption
  Version        = $os.Version
  OSArchitecture = $os.OSArchitecture
  Manufacturer   = $cs.Manufacturer
  ReleaseDate    = iso $bios.ReleaseDate
  SerialNumber   = $bios.SerialNumber
  BIOSVersion    = $bios.SMBIOSBIOSVersion
} | ConvertTo-Json -Compress`

// uninstallScript invokes Win32_Product.Uninstall for every product whose
// IdentifyingNumber is productID. productID must already be validated.
func uninstallScript(productID string) string {
	return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
Get-CimInstance -ClassName Win32_Product -Filter "IdentifyingNumber='%s'" | ForEach-Object {
  $r = Invoke-CimMethod -InputObject $_ -MethodName Uninstall
  [pscustomobject]@{ Name = $_.Name; ReturnValue = [int]$r.ReturnValue } | ConvertTo-Json -Compress
}`, productID)
}

const rebootScript = `Restart-Computer -Force`
